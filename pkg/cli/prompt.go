package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/portwalk-net/portwalk/pkg/config"
)

// stdinReader is shared so buffered input survives across prompts.
var stdinReader = bufio.NewReader(os.Stdin)

// ReadLine prompts and returns one trimmed line from stdin.
func ReadLine(prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := stdinReader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Confirm asks a yes/no question. Only an explicit "y"/"yes" is a yes.
func Confirm(prompt string) bool {
	answer, err := ReadLine(prompt + " [y/N]: ")
	if err != nil {
		return false
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}

// ReadPassword prompts for a secret without echoing it. Falls back to a
// plain read when stdin is not a terminal (piped input in scripts).
func ReadPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return ReadLine("")
	}
	b, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

// PromptCredential interactively collects a credential, used when neither
// the environment nor the config file provides one.
func PromptCredential() (config.Credential, error) {
	user, err := ReadLine("Username: ")
	if err != nil {
		return config.Credential{}, err
	}
	if user == "" {
		return config.Credential{}, fmt.Errorf("username required")
	}
	pass, err := ReadPassword("Password: ")
	if err != nil {
		return config.Credential{}, err
	}
	secret, err := ReadPassword("Enable secret (blank if none): ")
	if err != nil {
		return config.Credential{}, err
	}
	return config.Credential{Username: user, Password: pass, EnableSecret: secret}, nil
}
