// Command ssocli exercises the SSO client against a running backend with a
// software authenticator. It is a development tool, not a production client.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/shelby2770/testsso"
	"github.com/shelby2770/testsso/adapters/authenticator"
	"github.com/shelby2770/testsso/adapters/gateway"
	"github.com/shelby2770/testsso/adapters/store"
)

func main() {
	origin := flag.String("origin", "http://localhost:5173", "client origin presented to the authenticator")
	username := flag.String("username", "", "account username")
	firstName := flag.String("first-name", "", "first name for registration")
	lastName := flag.String("last-name", "", "last name for registration")
	email := flag.String("email", "", "email for registration")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: ssocli [flags] register|login|whoami|logout|clear")
		os.Exit(2)
	}

	tokenStore, err := store.DefaultFileStore()
	if err != nil {
		log.Fatalf("token store: %v", err)
	}

	gw := gateway.New(gateway.LoadConfigFromEnv())
	client := testsso.New(testsso.Options{
		Gateway:       gw,
		Authenticator: authenticator.New(*origin),
		TokenStore:    tokenStore,
	})

	ctx := context.Background()

	switch flag.Arg(0) {
	case "register":
		outcome, err := client.Register(ctx, *username, *firstName, *lastName, *email)
		if err != nil {
			log.Fatalf("register: %v", err)
		}
		fmt.Printf("registered %s\n", outcome.User.Username)

	case "login":
		outcome, err := client.Login(ctx, *username)
		if err != nil {
			log.Fatalf("login: %v", err)
		}
		fmt.Printf("logged in as %s\n", outcome.User.Username)

	case "whoami":
		if err := client.Start(ctx); err != nil {
			log.Fatalf("restore session: %v", err)
		}
		session := client.Session()
		if !session.IsAuthenticated {
			fmt.Println("not logged in")
			return
		}
		profile, err := gw.Profile(ctx, session.Token)
		if err != nil {
			log.Fatalf("profile: %v", err)
		}
		fmt.Printf("%s <%s>, %d credential(s)\n", profile.Username, profile.Email, len(profile.Credentials))

	case "logout":
		if err := client.Start(ctx); err != nil {
			log.Fatalf("restore session: %v", err)
		}
		if err := client.Logout(ctx); err != nil {
			log.Fatalf("logout: %v", err)
		}
		fmt.Println("logged out")

	case "clear":
		result, err := client.ClearPendingChallenges(ctx, *username)
		if err != nil {
			log.Fatalf("clear challenges: %v", err)
		}
		fmt.Println(result.Message)

	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", flag.Arg(0))
		os.Exit(2)
	}
}
