package api

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// LoadUpgradeInfo reads an upgrade_info.json file and validates it.
// A missing file is not an error: it returns nil, nil.
func LoadUpgradeInfo(filename string) (*UpgradeInfo, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading upgrade info: %w", err)
	}

	return ParseUpgradeInfo(data)
}
