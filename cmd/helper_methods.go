package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/PolarWolf314/coffer/internal/configs"
	cerrors "github.com/PolarWolf314/coffer/internal/errors"
	"github.com/PolarWolf314/coffer/internal/principals"
	"github.com/PolarWolf314/coffer/internal/session"
	"github.com/PolarWolf314/coffer/internal/ui"
	"github.com/PolarWolf314/coffer/internal/utils"
	"github.com/PolarWolf314/coffer/internal/workflows"

	"github.com/briandowns/spinner"
)

const (
	envPassphrase     = "COFFER_PASSPHRASE"
	envDataPassphrase = "COFFER_DATA_PASSPHRASE"
	envPrincipal      = "COFFER_PRINCIPAL"
)

// startSpinner creates and starts a spinner with the given message when not in verbose or debug mode.
// Returns the spinner and a function that should be deferred to clean up.
//
// IMPORTANT: spinner.FinalMSG values do NOT need trailing newlines. The cleanup function
// automatically calls ui.EnsureNewline() on the final message before printing it.
func startSpinner(message string, verbose bool) (*spinner.Spinner, func()) {
	Logger.Debugf("Starting spinner with message: %s", message)
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message

	err := s.Color("cyan")
	if err != nil {
		// If we can't set spinner color, just continue without it.
		Logger.Warnf("Failed to set spinner color: %v", err)
	}

	if !verbose && !debug {
		s.Start()
		// Ensure log output is discarded unless in verbose mode.
		log.SetOutput(io.Discard)
	} else {
		Logger.Infof("Running in verbose or debug mode: %s", message)
	}

	cleanup := func() {
		if !verbose && !debug {
			log.SetOutput(os.Stdout)
		}

		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ui.EnsureNewline(s.FinalMSG)
			// Clear FinalMSG so s.Stop() doesn't print it.
			s.FinalMSG = ""
		}

		if !verbose && !debug {
			s.Stop()
		}

		// Print final message to stdout (for tests to capture).
		if finalMsg != "" {
			fmt.Print(finalMsg)
		}
	}

	return s, cleanup
}

// resolveConfigPath applies the --config flag, $COFFER_CONFIG and discovery.
func resolveConfigPath() (string, error) {
	path, err := configs.ResolvePath(configPath)
	if err != nil {
		return "", err
	}
	Logger.Debugf("Config path: %s", path)
	return path, nil
}

// openVault loads the config and wires the vault. The returned function
// closes it.
func openVault(ctx context.Context) (*workflows.Vault, func(), error) {
	path, err := resolveConfigPath()
	if err != nil {
		return nil, nil, err
	}
	cfg, err := configs.Load(path)
	if err != nil {
		return nil, nil, err
	}
	Logger.Infof("Using %s backend (encryption %t)", cfg.Storage.Backend, cfg.Crypto.Encrypt)

	v, err := workflows.OpenVault(ctx, cfg, Logger.Zap())
	if err != nil {
		return nil, nil, err
	}

	v.Guard.OnLock(func(reason session.LockReason) {
		if reason == session.ReasonIdle {
			Logger.Warnf("Vault locked after %s of inactivity", v.Guard.IdleTimeout())
		}
	})

	closeFn := func() {
		if err := v.Close(); err != nil {
			Logger.Warnf("Failed to close vault: %v", err)
		}
	}
	return v, closeFn, nil
}

// openUnlockedVault opens the vault and unlocks it for the selected principal.
// Passphrase prompts happen here, before any spinner starts.
func openUnlockedVault(ctx context.Context) (*workflows.Vault, principals.Principal, func(), error) {
	v, closeFn, err := openVault(ctx)
	if err != nil {
		return nil, principals.Principal{}, nil, err
	}

	ref, err := selectPrincipal(ctx, v)
	if err != nil {
		closeFn()
		return nil, principals.Principal{}, nil, err
	}

	passphrase, err := readPassphrase(envPassphrase, "Passphrase: ")
	if err != nil {
		closeFn()
		return nil, principals.Principal{}, nil, err
	}
	dataPassphrase := os.Getenv(envDataPassphrase)

	p, err := v.Unlock(ctx, workflows.UnlockOptions{
		Principal:      ref,
		Passphrase:     passphrase,
		DataPassphrase: dataPassphrase,
	})
	if err != nil {
		closeFn()
		return nil, principals.Principal{}, nil, err
	}
	Logger.Infof("Unlocked vault for %s", p.Email)
	return v, p, closeFn, nil
}

// selectPrincipal returns the --principal flag, $COFFER_PRINCIPAL or the only
// registered principal.
func selectPrincipal(ctx context.Context, v *workflows.Vault) (string, error) {
	if principalFlag != "" {
		return principalFlag, nil
	}
	if env := os.Getenv(envPrincipal); env != "" {
		return env, nil
	}

	list, err := v.Registry.List(ctx)
	if err != nil {
		return "", err
	}
	switch len(list) {
	case 0:
		return "", fmt.Errorf("%w: no principals registered", cerrors.ErrPrincipalNotFound)
	case 1:
		return list[0].ID, nil
	default:
		emails := make([]string, 0, len(list))
		for _, p := range list {
			emails = append(emails, p.Email)
		}
		return "", fmt.Errorf("%w:%s", errMultiplePrincipals, strings.TrimRight(utils.FormatList(emails), "\n"))
	}
}

var errMultiplePrincipals = errors.New("more than one principal is registered")

// readPassphrase returns the value of env, or prompts for it on the terminal.
func readPassphrase(env, prompt string) (string, error) {
	if value, ok := os.LookupEnv(env); ok {
		Logger.Debugf("Using passphrase from %s", env)
		return value, nil
	}

	var raw []byte
	var err error
	switch {
	case utils.IsTerminal():
		raw, err = utils.ReadPassphrase(prompt)
	case utils.IsTTYAvailable():
		raw, err = utils.ReadPassphraseFromTTY(prompt)
	default:
		return "", fmt.Errorf("no terminal to prompt on, set %s", env)
	}
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// userFacingError turns known failures into a final message. It returns
// false for errors that should surface as command errors.
func userFacingError(err error) (string, bool) {
	switch {
	case errors.Is(err, cerrors.ErrInvalidCredentials):
		return ui.Error.Sprint("✗") + " Invalid passphrase", true

	case errors.Is(err, cerrors.ErrDecryption):
		return ui.Error.Sprint("✗") + " " + cerrors.ErrDecryption.Error() + "\n" +
			ui.Info.Sprint("→") + " Check " + ui.Code.Sprint(envDataPassphrase) + " if the vault uses a separate data passphrase", true

	case errors.Is(err, errMultiplePrincipals):
		return ui.Error.Sprint("✗") + " " + err.Error() + "\n" +
			ui.Info.Sprint("→") + " Pass " + ui.Flag.Sprint("--principal") + " or set " + ui.Code.Sprint(envPrincipal), true

	case errors.Is(err, cerrors.ErrPrincipalNotFound):
		return ui.Error.Sprint("✗") + " " + err.Error() + "\n" +
			ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("coffer register --email you@example.com") + " to create an account", true

	case errors.Is(err, cerrors.ErrNoSession):
		return ui.Error.Sprint("✗") + " The vault is locked\n" +
			ui.Info.Sprint("→") + " Run the command again to unlock", true

	case errors.Is(err, cerrors.ErrInvalidConfig), errors.Is(err, cerrors.ErrUnknownBackend):
		return ui.Error.Sprint("✗") + " " + err.Error() + "\n" +
			ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("coffer doctor") + " to check the configuration", true

	case errors.Is(err, cerrors.ErrValidation),
		errors.Is(err, cerrors.ErrInvalidArchive),
		errors.Is(err, cerrors.ErrFileNotFound),
		errors.Is(err, cerrors.ErrInvalidEmail),
		errors.Is(err, cerrors.ErrWeakPassphrase),
		errors.Is(err, cerrors.ErrPrincipalExists),
		errors.Is(err, cerrors.ErrAlreadyInitialized):
		return ui.Error.Sprint("✗") + " " + err.Error(), true
	}
	return "", false
}

// fail sets a user-facing final message for known errors and returns the
// rest.
func fail(s *spinner.Spinner, err error, format string) error {
	if msg, ok := userFacingError(err); ok {
		Logger.Infof("%s: %v", format, err)
		if s != nil {
			s.FinalMSG = msg
		} else {
			fmt.Println(msg)
		}
		return nil
	}
	return Logger.ErrorfAndReturn("%s: %v", format, err)
}

// sensitiveFields are masked unless --reveal is passed.
var sensitiveFields = []string{
	"password", "pin", "cvv", "accountnumber", "account_number", "cardnumber", "card_number", "secret", "iban",
}

func isSensitive(field string) bool {
	return slices.Contains(sensitiveFields, strings.ToLower(field))
}
