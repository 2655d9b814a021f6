package storage

// Tx is the transaction handle the service layer drives. *sql.Tx satisfies it.
type Tx interface {
	Commit() error
	Rollback() error
}
