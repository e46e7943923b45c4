package enums

import "fmt"

// UserType maps to the user_type enum in Postgres.
type UserType string

const (
	UserTypeFarmer  UserType = "farmer"
	UserTypeKitchen UserType = "kitchen"
)

var validUserTypes = []UserType{
	UserTypeFarmer,
	UserTypeKitchen,
}

// IsValid checks whether the given type matches the canonical enum.
func (u UserType) IsValid() bool {
	for _, candidate := range validUserTypes {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseUserType converts raw strings into UserType.
func ParseUserType(value string) (UserType, error) {
	for _, candidate := range validUserTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user type %q", value)
}
