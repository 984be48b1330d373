package authz

import (
	"encoding/json"
	"fmt"
	"os"
)

const (
	errReadAPIKeysFileFmt  = "failed to read API keys file %s: %w"
	errParseAPIKeysFileFmt = "failed to parse API keys file %s: %w"
)

// apiKeyFile is the on-disk shape of the API key table: raw key value
// to resource to allowed methods.
type apiKeyFile map[string]map[string][]string

// LoadAPIKeyTable reads the static API key table from a JSON file. An
// empty path yields an empty table, meaning every API key credential is
// unknown and rejected. The table is a closed world: a key missing a
// resource entry is denied there, it never falls through to weaker
// grant sources.
func LoadAPIKeyTable(path string) (APIKeyTable, error) {
	table := make(APIKeyTable)
	if path == "" {
		return table, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf(errReadAPIKeysFileFmt, path, err)
	}

	var file apiKeyFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf(errParseAPIKeysFileFmt, path, err)
	}

	for key, resources := range file {
		grants := make(KeyGrants, len(resources))
		for resource, methods := range resources {
			set := make(map[string]bool, len(methods))
			for _, m := range methods {
				set[m] = true
			}
			grants[resource] = set
		}
		table[key] = grants
	}

	return table, nil
}
