package interfaces

import domaintypes "matrixchat/internal/domain/types"

// ProfileStore persists the participant's last-used relay and name.
type ProfileStore interface {
	SaveProfile(profile domaintypes.Profile) error
	LoadProfile() (domaintypes.Profile, bool, error)
}
