package session

import (
	"encoding/json"
	"fmt"

	"github.com/yski/yski-client/internal/models"
)

// CurrentVersion - версия формата снимка, который пишет клиент
const CurrentVersion = 1

// Snapshot - сохраняемая форма сессии.
// Версия 0 - старый формат без версии; мобильный клиент писал access token под ключом "token".
type Snapshot struct {
	State   SnapshotState `json:"state"`
	Version int           `json:"version"`
}

// SnapshotState - поля состояния внутри снимка
type SnapshotState struct {
	User            *models.UserProfile `json:"user"`
	AccessToken     string              `json:"accessToken,omitempty"`
	LegacyToken     string              `json:"token,omitempty"`
	RefreshToken    string              `json:"refreshToken,omitempty"`
	IsAuthenticated bool                `json:"isAuthenticated"`
}

// NewSnapshot строит снимок текущей версии
func NewSnapshot(s Session) Snapshot {
	s = s.normalize()
	return Snapshot{
		Version: CurrentVersion,
		State: SnapshotState{
			User:            s.User,
			AccessToken:     s.AccessToken,
			RefreshToken:    s.RefreshToken,
			IsAuthenticated: s.IsAuthenticated,
		},
	}
}

// Migrate приводит снимок к CurrentVersion на месте
func Migrate(snap *Snapshot) error {
	switch snap.Version {
	case 0:
		if snap.State.AccessToken == "" {
			snap.State.AccessToken = snap.State.LegacyToken
		}
		snap.State.LegacyToken = ""
		snap.Version = 1
		fallthrough
	case CurrentVersion:
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrSnapshotVersion, snap.Version)
	}
}

// Session возвращает сессию; флаг аутентификации всегда пересчитывается
func (snap Snapshot) Session() Session {
	return Session{
		User:         snap.State.User,
		AccessToken:  snap.State.AccessToken,
		RefreshToken: snap.State.RefreshToken,
	}.normalize()
}

// EncodeSnapshot сериализует сессию
func EncodeSnapshot(s Session) ([]byte, error) {
	raw, err := json.Marshal(NewSnapshot(s))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return raw, nil
}

// DecodeSnapshot разбирает и мигрирует снимок
func DecodeSnapshot(raw []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	if err := Migrate(&snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}
