package repository

// Entity is implemented by every record kind held in the dataset.
type Entity interface {
	// Key is the primary key within the entity's collection.
	Key() string
	// Stamp is the raw timestamp used for ordering.
	Stamp() string
}

// UserProfile is keyed by Username.
type UserProfile struct {
	Username     string   `json:"username" validate:"required,min=3,max=32"`
	Email        string   `json:"email,omitempty" validate:"omitempty,email"`
	PasswordHash string   `json:"passwordHash,omitempty"`
	Tagline      string   `json:"tagline,omitempty" validate:"max=140"`
	Avatar       string   `json:"avatar,omitempty"`
	Status       string   `json:"status,omitempty"`
	Following    []string `json:"following"`
	Achievements []string `json:"achievements"`
	JoinedAt     string   `json:"joinedAt,omitempty"`
}

func (u UserProfile) Key() string   { return u.Username }
func (u UserProfile) Stamp() string { return u.JoinedAt }

// Comment is embedded in an exhibit and has no lifecycle of its own.
type Comment struct {
	ID        string `json:"id"`
	Author    string `json:"author" validate:"required"`
	Text      string `json:"text" validate:"required"`
	Timestamp string `json:"timestamp"`
}

// Exhibit is a catalogue entry. Owner is a weak reference to a UserProfile.
type Exhibit struct {
	ID          string            `json:"id"`
	Slug        string            `json:"slug,omitempty"`
	Title       string            `json:"title" validate:"required,max=200"`
	Description string            `json:"description,omitempty"`
	Category    string            `json:"category,omitempty"`
	Owner       string            `json:"owner" validate:"required"`
	Timestamp   string            `json:"timestamp"`
	Likes       int               `json:"likes" validate:"min=0"`
	LikedBy     []string          `json:"likedBy"`
	Views       int               `json:"views" validate:"min=0"`
	Comments    []Comment         `json:"comments" validate:"dive"`
	Images      []string          `json:"images"`
	Specs       map[string]string `json:"specs,omitempty"`
	Condition   string            `json:"condition,omitempty"`
}

func (e Exhibit) Key() string   { return e.ID }
func (e Exhibit) Stamp() string { return e.Timestamp }

// Collection groups exhibits by id without owning them.
type Collection struct {
	ID          string   `json:"id"`
	Slug        string   `json:"slug,omitempty"`
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description,omitempty"`
	Owner       string   `json:"owner" validate:"required"`
	CoverImage  string   `json:"coverImage,omitempty"`
	ExhibitIDs  []string `json:"exhibitIds"`
	Timestamp   string   `json:"timestamp"`
}

func (c Collection) Key() string   { return c.ID }
func (c Collection) Stamp() string { return c.Timestamp }

type Notification struct {
	ID        string `json:"id"`
	Type      string `json:"type" validate:"required"`
	Actor     string `json:"actor"`
	Recipient string `json:"recipient" validate:"required"`
	TargetID  string `json:"targetId,omitempty"`
	Timestamp string `json:"timestamp"`
	IsRead    bool   `json:"isRead"`
}

func (n Notification) Key() string   { return n.ID }
func (n Notification) Stamp() string { return n.Timestamp }

type Message struct {
	ID        string `json:"id"`
	Sender    string `json:"sender" validate:"required"`
	Receiver  string `json:"receiver" validate:"required"`
	Text      string `json:"text" validate:"required"`
	Timestamp string `json:"timestamp"`
	IsRead    bool   `json:"isRead"`
}

func (m Message) Key() string   { return m.ID }
func (m Message) Stamp() string { return m.Timestamp }

type GuestbookEntry struct {
	ID         string `json:"id"`
	Author     string `json:"author" validate:"required"`
	TargetUser string `json:"targetUser" validate:"required"`
	Text       string `json:"text" validate:"required"`
	Timestamp  string `json:"timestamp"`
	IsRead     bool   `json:"isRead"`
}

func (g GuestbookEntry) Key() string   { return g.ID }
func (g GuestbookEntry) Stamp() string { return g.Timestamp }

// Dataset is the whole application state held by the cache and mirrored by
// the snapshot store.
type Dataset struct {
	Users         []UserProfile    `json:"users"`
	Exhibits      []Exhibit        `json:"exhibits"`
	Collections   []Collection     `json:"collections"`
	Notifications []Notification   `json:"notifications"`
	Messages      []Message        `json:"messages"`
	Guestbook     []GuestbookEntry `json:"guestbook"`
	DeletedIDs    []string         `json:"deletedIds"`
	IsLoaded      bool             `json:"isLoaded"`
}

// ApplyDefaults replaces nil slices so the dataset always serializes to arrays.
func (d *Dataset) ApplyDefaults() {
	if d.Users == nil {
		d.Users = []UserProfile{}
	}
	for i := range d.Users {
		d.Users[i].applyDefaults()
	}
	if d.Exhibits == nil {
		d.Exhibits = []Exhibit{}
	}
	for i := range d.Exhibits {
		d.Exhibits[i].applyDefaults()
	}
	if d.Collections == nil {
		d.Collections = []Collection{}
	}
	for i := range d.Collections {
		if d.Collections[i].ExhibitIDs == nil {
			d.Collections[i].ExhibitIDs = []string{}
		}
	}
	if d.Notifications == nil {
		d.Notifications = []Notification{}
	}
	if d.Messages == nil {
		d.Messages = []Message{}
	}
	if d.Guestbook == nil {
		d.Guestbook = []GuestbookEntry{}
	}
	if d.DeletedIDs == nil {
		d.DeletedIDs = []string{}
	}
}

func (u *UserProfile) applyDefaults() {
	if u.Following == nil {
		u.Following = []string{}
	}
	if u.Achievements == nil {
		u.Achievements = []string{}
	}
}

func (e *Exhibit) applyDefaults() {
	if e.LikedBy == nil {
		e.LikedBy = []string{}
	}
	if e.Comments == nil {
		e.Comments = []Comment{}
	}
	if e.Images == nil {
		e.Images = []string{}
	}
}

// Tombstones returns the deleted id set as a lookup map.
func (d *Dataset) Tombstones() map[string]struct{} {
	set := make(map[string]struct{}, len(d.DeletedIDs))
	for _, id := range d.DeletedIDs {
		set[id] = struct{}{}
	}
	return set
}

// AddTombstone records id as deleted. Already present ids are ignored.
func (d *Dataset) AddTombstone(id string) {
	for _, existing := range d.DeletedIDs {
		if existing == id {
			return
		}
	}
	d.DeletedIDs = append(d.DeletedIDs, id)
}

// RemoveTombstone forgets id, so a record recreated under it survives merges.
func (d *Dataset) RemoveTombstone(id string) {
	for i, existing := range d.DeletedIDs {
		if existing == id {
			d.DeletedIDs = append(d.DeletedIDs[:i], d.DeletedIDs[i+1:]...)
			return
		}
	}
}

// IsDeleted reports whether id is in the tombstone set.
func (d *Dataset) IsDeleted(id string) bool {
	for _, existing := range d.DeletedIDs {
		if existing == id {
			return true
		}
	}
	return false
}
