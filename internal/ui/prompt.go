package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
)

func nonEmpty(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("value cannot be empty")
	}
	return nil
}

func PromptEmail() (string, error) {
	prompt := promptui.Prompt{
		Label:    "Email",
		Validate: nonEmpty,
	}

	email, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("email prompt: %w", err)
	}

	return strings.TrimSpace(email), nil
}

func PromptPassword() (string, error) {
	prompt := promptui.Prompt{
		Label:    "Password",
		Mask:     '*',
		Validate: nonEmpty,
	}

	password, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("password prompt: %w", err)
	}

	return password, nil
}

// Confirm asks a yes/no question; anything but an explicit yes is a no.
func Confirm(label string) bool {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}

	_, err := prompt.Run()
	return err == nil
}
