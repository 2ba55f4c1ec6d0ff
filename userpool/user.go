package userpool

import (
	"golang.org/x/crypto/bcrypt"
)

// UserStatus values mirror the emulated service's lifecycle states.
type UserStatus string

const (
	UserStatusUnconfirmed         UserStatus = "UNCONFIRMED"
	UserStatusConfirmed           UserStatus = "CONFIRMED"
	UserStatusForceChangePassword UserStatus = "FORCE_CHANGE_PASSWORD"
	UserStatusResetRequired       UserStatus = "RESET_REQUIRED"
)

// Attribute is a single name/value user attribute.
type Attribute struct {
	Name  string `json:"Name"`
	Value string `json:"Value"`
}

// MFAOption describes a configured multi-factor delivery option.
type MFAOption struct {
	DeliveryMedium string `json:"DeliveryMedium"`
	AttributeName  string `json:"AttributeName"`
}

// User is the persisted record for one directory user. JSON field names
// follow the emulated service's wire shape because the record round-trips
// through the pool's document store.
type User struct {
	Username             string      `json:"Username"`
	Password             string      `json:"Password"` // bcrypt hash
	Attributes           []Attribute `json:"Attributes"`
	Enabled              bool        `json:"Enabled"`
	UserStatus           UserStatus  `json:"UserStatus"`
	MFAOptions           []MFAOption `json:"MFAOptions,omitempty"`
	ConfirmationCode     string      `json:"ConfirmationCode,omitempty"`
	UserCreateDate       int64       `json:"UserCreateDate"`
	UserLastModifiedDate int64       `json:"UserLastModifiedDate"`
}

// Attribute returns the value of the named attribute and whether it is set.
func (u *User) Attribute(name string) (string, bool) {
	for _, attr := range u.Attributes {
		if attr.Name == name {
			return attr.Value, true
		}
	}
	return "", false
}

// Sub returns the user's unique subject identifier.
func (u *User) Sub() string {
	sub, _ := u.Attribute("sub")
	return sub
}

// SetAttribute replaces or appends the named attribute.
func (u *User) SetAttribute(name, value string) {
	for i, attr := range u.Attributes {
		if attr.Name == name {
			u.Attributes[i].Value = value
			return
		}
	}
	u.Attributes = append(u.Attributes, Attribute{Name: name, Value: value})
}

// MatchesPassword checks a plaintext password against the stored hash.
func (u *User) MatchesPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// Group is a persisted named grouping of users within one pool.
type Group struct {
	GroupName        string `json:"GroupName"`
	Description      string `json:"Description,omitempty"`
	CreationDate     int64  `json:"CreationDate"`
	LastModifiedDate int64  `json:"LastModifiedDate"`
}

// ClientRecord associates an app client identifier with the pool that owns
// it. Records live in the top-level clients store under [Clients, <id>] and
// are never deleted.
type ClientRecord struct {
	ClientID     string `json:"ClientId"`
	ClientName   string `json:"ClientName"`
	UserPoolID   string `json:"UserPoolId"`
	CreationDate int64  `json:"CreationDate"`
}
