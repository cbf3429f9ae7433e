package users

type UserRepo interface {
	Upsert(account *Account) error
	Delete(email string) error
	GetByEmail(email string) (*Account, error)
	GetByID(ID string) (*Account, error)
	List() ([]*Account, error)
}
