package types

// Collection keys under which a Store persists whole documents.
const (
	CollectionBooks     = "books"
	CollectionLoans     = "loans"
	CollectionRequests  = "borrowRequests"
	CollectionUsers     = "users"
	CollectionLibrarian = "librarianUser"
	CollectionMember    = "memberUser"
)

// SessionCollection returns the collection key holding the session marker
// for role.
func SessionCollection(role Role) (string, error) {
	switch role {
	case RoleLibrarian:
		return CollectionLibrarian, nil
	case RoleMember:
		return CollectionMember, nil
	default:
		return "", ErrInvalidRole
	}
}

// Store reads and writes whole collections. Every Load returns the complete
// current collection and every Save replaces it; there are no partial
// updates and no transactions. A missing collection loads as empty.
// Load methods return ErrCorruptDocument when the stored document cannot be
// parsed.
type Store interface {
	LoadBooks() ([]Book, error)
	SaveBooks(books []Book) error

	LoadLoans() ([]Loan, error)
	SaveLoans(loans []Loan) error

	LoadRequests() ([]BorrowRequest, error)
	SaveRequests(requests []BorrowRequest) error

	LoadUsers() ([]User, error)
	SaveUsers(users []User) error

	// LoadSession returns ErrNoSession when no one is signed in for role.
	LoadSession(role Role) (Session, error)
	SaveSession(session Session) error
	// ClearSession is idempotent.
	ClearSession(role Role) error

	// Close releases backend resources. Idempotent.
	Close() error
}

// Snapshot is the full state returned to callers after every operation so
// they can render without a separate fetch.
type Snapshot struct {
	Books    []Book          `json:"books"`
	Loans    []Loan          `json:"loans"`
	Requests []BorrowRequest `json:"borrowRequests"`
}
