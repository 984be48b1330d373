package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// MembershipRepository resolves the group permissions a user currently
// holds. Expired memberships are filtered in the query; the engine
// never honors them even before the background sweep removes the rows.
type MembershipRepository struct {
	db *DB
}

func NewMembershipRepository(db *DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

func (r *MembershipRepository) ActivePermissions(ctx context.Context, userID uuid.UUID, resource string) ([]string, error) {
	query := `
		SELECT g.permissions
		FROM groupmemberships m
		JOIN groups g ON g.id = m.group_id
		WHERE m.user_id = $1
		  AND (m.expiry IS NULL OR m.expiry > NOW())
		  AND g.permissions IS NOT NULL
	`

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf(errFailedListPermissionsFmt, err)
	}
	defer rows.Close()

	var perms []string
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf(errFailedScanPermissionsFmt, err)
		}

		var byResource map[string]string
		if err := json.Unmarshal(raw, &byResource); err != nil {
			return nil, fmt.Errorf(errFailedScanPermissionsFmt, err)
		}
		if perm, ok := byResource[resource]; ok && perm != "" {
			perms = append(perms, perm)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf(errIteratePermissionsFmt, err)
	}

	return perms, nil
}
