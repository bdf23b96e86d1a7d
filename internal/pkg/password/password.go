package password

import (
	"errors"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const minLength = 6

var ErrTooShort = errors.New("password too short")

func Hash(plain string) (string, error) {
	if utf8.RuneCountInString(plain) < minLength {
		return "", ErrTooShort
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func Compare(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
