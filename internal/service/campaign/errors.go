package campaign

import "errors"

// Sentinel errors for the campaign service layer.
var (
	ErrNotFound         = errors.New("campaign not found")
	ErrAlreadyLaunched  = errors.New("campaign is already running or completed")
	ErrLaunchInProgress = errors.New("campaign launch already in progress")
	ErrNoRecipients     = errors.New("campaign has no recipients")
)
