package ports

import "github.com/shelby2770/testsso/core"

// Tokenizer issues and verifies SSO tokens on the server side.
type Tokenizer interface {
	Issue(user core.User) (string, error)
	Verify(token string) (*core.User, error)
}
