package crypto

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/MKhiriev/go-pass-store/models"
)

// defaultGPGBinary is the executable NewGPG probes for a gpg2 upgrade.
const defaultGPGBinary = "gpg"

// commandRunner executes one external command with the given stdin and
// returns its stdout and stderr separately. Factored out of [GPG] so tests
// can observe the exact invocation without a gpg installation.
type commandRunner func(ctx context.Context, stdin []byte, name string, args ...string) (stdout, stderr []byte, err error)

// GPG is an [Engine] that delegates to the system gpg binary, piping
// ciphertext and plaintext through stdin/stdout. It implements none of
// OpenPGP itself; key lookup, agent interaction, and trust decisions all
// stay with gpg and the user's keyring.
type GPG struct {
	binary string
	opts   []string
	run    commandRunner
}

// NewGPG constructs a GPG engine invoking the given binary. When binary is
// plain "gpg" and a "gpg2" executable is on PATH, gpg2 is preferred, same
// as the reference password-store tooling. opts carries extra
// whitespace-separated command-line options appended to every invocation
// (e.g. "--homedir /tmp/gnupg").
func NewGPG(binary string, opts string) *GPG {
	if binary == defaultGPGBinary {
		if _, err := exec.LookPath(defaultGPGBinary + "2"); err == nil {
			binary = defaultGPGBinary + "2"
		}
	}

	return &GPG{
		binary: binary,
		opts:   strings.Fields(opts),
		run:    runCommand,
	}
}

// Decrypt implements [Engine]. It pipes ciphertext through
// `gpg --decrypt`; gpg locates the matching private key in the user's
// keyring. A non-zero exit is reported as [ErrDecryptionFailed] carrying
// gpg's stderr.
func (g *GPG) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	stdout, stderr, err := g.run(ctx, ciphertext, g.binary, g.decryptArgs()...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecryptionFailed, stderrSummary(stderr), err)
	}

	return stdout, nil
}

// Encrypt implements [Engine]. It pipes plaintext through `gpg --encrypt`
// with one --recipient flag per entry of the set. gpg rejecting a recipient
// ("No public key") is reported as [ErrUnknownRecipient]; any other failure
// as [ErrEncryptionFailed].
func (g *GPG) Encrypt(ctx context.Context, plaintext []byte, recipients models.RecipientSet) ([]byte, error) {
	if recipients.IsEmpty() {
		return nil, fmt.Errorf("%w: empty recipient set", ErrEncryptionFailed)
	}

	stdout, stderr, err := g.run(ctx, plaintext, g.binary, g.encryptArgs(recipients)...)
	if err != nil {
		if bytes.Contains(stderr, []byte("No public key")) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownRecipient, stderrSummary(stderr))
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrEncryptionFailed, stderrSummary(stderr), err)
	}

	return stdout, nil
}

func (g *GPG) decryptArgs() []string {
	args := []string{"--decrypt", "--quiet", "--yes", "--batch", "--compress-algo=none"}
	return append(args, g.opts...)
}

func (g *GPG) encryptArgs(recipients models.RecipientSet) []string {
	args := []string{"--encrypt", "--quiet", "--yes", "--batch", "--compress-algo=none", "--no-encrypt-to"}
	for _, id := range recipients {
		args = append(args, "--recipient", id)
	}
	return append(args, g.opts...)
}

// stderrSummary condenses gpg's stderr for inclusion in returned errors.
func stderrSummary(stderr []byte) string {
	s := strings.TrimSpace(string(stderr))
	if s == "" {
		return "gpg reported no details"
	}
	return s
}

// runCommand is the production commandRunner built on os/exec.
func runCommand(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = bytes.NewReader(stdin)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
