// Command keygen prints a fresh ENCRYPTION_KEY, or with -code the current
// one-time code for a base32 secret.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/datumlabs/totpgate/pkg/totp"
)

var errEmptySecret = errors.New("secret has no base32 characters")

func main() {
	secret := flag.String("code", "", "print the current code for this base32 secret instead of a key")
	flag.Parse()

	out, err := run(*secret, time.Now())
	if err != nil {
		fmt.Fprintln(os.Stderr, "keygen:", err)
		os.Exit(1)
	}
	fmt.Println(out)
}

func run(secret string, now time.Time) (string, error) {
	if secret == "" {
		return totp.GenerateHexKey()
	}
	if len(totp.Base32Decode(secret)) == 0 {
		return "", errEmptySecret
	}
	return totp.GenerateCode(secret, now), nil
}
