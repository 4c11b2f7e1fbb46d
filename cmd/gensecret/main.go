package main

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
)

// HS256 key should be at least as long as the hash output
const minSecretKeyBytesLen = 32

func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error while generating secret key: %v\n", err)
		os.Exit(1)
	}
}

// Print random secret key suitable for SECRET_KEY
func run(out io.Writer, args []string) error {
	fs := pflag.NewFlagSet("gensecret", pflag.ContinueOnError)
	size := fs.IntP("bytes", "n", minSecretKeyBytesLen, "Key length in bytes")
	encoding := fs.StringP("encoding", "e", "hex", "Output encoding (hex, base64)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *size < minSecretKeyBytesLen {
		return fmt.Errorf("key must be at least %d bytes", minSecretKeyBytesLen)
	}

	b := make([]byte, *size)
	if _, err := rand.Read(b); err != nil {
		return err
	}

	switch *encoding {
	case "hex":
		_, err := fmt.Fprintln(out, hex.EncodeToString(b))
		return err
	case "base64":
		_, err := fmt.Fprintln(out, base64.RawURLEncoding.EncodeToString(b))
		return err
	default:
		return errors.New("unknown encoding, expected hex or base64")
	}
}
