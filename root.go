package passstore

import (
	"github.com/MKhiriev/go-pass-store/internal/config"
)

// Location returns the store root directory the library would use right
// now: PASSWORD_STORE_DIR if set, otherwise ~/.password-store. The
// environment is re-evaluated on every call, so a process changing its own
// environment at runtime is honored. Location does not check that the
// directory exists; [Open] does.
func Location() (string, error) {
	cfg, err := config.Load()
	if err != nil {
		return "", err
	}

	return cfg.Store.Dir, nil
}
