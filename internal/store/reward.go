package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/pjhalloran/questkeep/internal/model"
)

type RewardStore struct {
	db *sql.DB
}

func NewRewardStore(db *sql.DB) *RewardStore {
	return &RewardStore{db: db}
}

// --- Reward methods ---

func scanReward(scanner interface{ Scan(...any) error }) (*model.Reward, error) {
	var r model.Reward
	var approval, unlimited, available int
	var expiresAt sql.NullTime

	err := scanner.Scan(
		&r.ID, &r.Title, &r.Description, &r.Tier, &r.XPCost, &r.MinLevel,
		&approval, &unlimited, &available, &expiresAt, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.RequiresApproval = approval != 0
	r.Unlimited = unlimited != 0
	r.Available = available != 0
	if expiresAt.Valid {
		t := expiresAt.Time
		r.ExpiresAt = &t
	}
	return &r, nil
}

const rewardCols = `id, title, description, tier, xp_cost, min_level, requires_approval, unlimited, available, expires_at, created_at`

func (s *RewardStore) Create(r model.Reward) (*model.Reward, error) {
	var expiresAt sql.NullTime
	if r.ExpiresAt != nil {
		expiresAt = sql.NullTime{Time: r.ExpiresAt.UTC(), Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO rewards (title, description, tier, xp_cost, min_level, requires_approval, unlimited, available, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Title, r.Description, r.Tier, r.XPCost, r.MinLevel,
		boolToInt(r.RequiresApproval), boolToInt(r.Unlimited), boolToInt(r.Available), expiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert reward: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *RewardStore) GetByID(id int64) (*model.Reward, error) {
	row := s.db.QueryRow(`SELECT `+rewardCols+` FROM rewards WHERE id = ?`, id)
	r, err := scanReward(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reward: %w", err)
	}
	return r, nil
}

// List returns all rewards, available first, then by title.
func (s *RewardStore) List() ([]model.Reward, error) {
	rows, err := s.db.Query(`SELECT ` + rewardCols + ` FROM rewards ORDER BY available DESC, title ASC`)
	if err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	defer rows.Close()

	var rewards []model.Reward
	for rows.Next() {
		r, err := scanReward(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reward: %w", err)
		}
		rewards = append(rewards, *r)
	}
	return rewards, rows.Err()
}

func (s *RewardStore) Update(id int64, r model.Reward) (*model.Reward, error) {
	var expiresAt sql.NullTime
	if r.ExpiresAt != nil {
		expiresAt = sql.NullTime{Time: r.ExpiresAt.UTC(), Valid: true}
	}

	_, err := s.db.Exec(
		`UPDATE rewards SET title = ?, description = ?, tier = ?, xp_cost = ?, min_level = ?,
		 requires_approval = ?, unlimited = ?, available = ?, expires_at = ?
		 WHERE id = ?`,
		r.Title, r.Description, r.Tier, r.XPCost, r.MinLevel,
		boolToInt(r.RequiresApproval), boolToInt(r.Unlimited), boolToInt(r.Available), expiresAt,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("update reward: %w", err)
	}
	return s.GetByID(id)
}

func (s *RewardStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM rewards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete reward: %w", err)
	}
	return nil
}

// SetAvailabilityTx flips the availability of a reward inside an engine
// transaction, so the flip and the claim append are observed together.
func (s *RewardStore) SetAvailabilityTx(tx *sql.Tx, id int64, available bool) error {
	_, err := tx.Exec(`UPDATE rewards SET available = ? WHERE id = ?`, boolToInt(available), id)
	if err != nil {
		return fmt.Errorf("set reward availability: %w", err)
	}
	return nil
}

// DeleteExpired removes special-tier rewards whose expiry has passed.
func (s *RewardStore) DeleteExpired(now time.Time) (int64, error) {
	result, err := s.db.Exec(
		`DELETE FROM rewards WHERE expires_at IS NOT NULL AND expires_at <= ?`,
		now.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired rewards: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}

// --- Claim methods ---

func scanClaim(scanner interface{ Scan(...any) error }) (*model.Claim, error) {
	var c model.Claim
	var approved, denied int
	var resolvedAt sql.NullTime

	err := scanner.Scan(&c.ID, &c.RewardID, &c.ChildID, &c.Cost, &approved, &denied, &c.ClaimedAt, &resolvedAt)
	if err != nil {
		return nil, err
	}

	c.Approved = approved != 0
	c.Denied = denied != 0
	if resolvedAt.Valid {
		t := resolvedAt.Time
		c.ResolvedAt = &t
	}
	return &c, nil
}

const claimCols = `id, reward_id, child_id, cost, approved, denied, claimed_at, resolved_at`

// CreateClaimTx appends a claim inside an engine transaction. Cost is the
// reward's XP cost snapshotted at claim time.
func (s *RewardStore) CreateClaimTx(tx *sql.Tx, rewardID, childID int64, cost int, approved bool, claimedAt time.Time) (int64, error) {
	result, err := tx.Exec(
		`INSERT INTO claims (reward_id, child_id, cost, approved, claimed_at) VALUES (?, ?, ?, ?, ?)`,
		rewardID, childID, cost, boolToInt(approved), claimedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert claim: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

func (s *RewardStore) GetClaim(id int64) (*model.Claim, error) {
	row := s.db.QueryRow(`SELECT `+claimCols+` FROM claims WHERE id = ?`, id)
	c, err := scanClaim(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get claim: %w", err)
	}
	return c, nil
}

// ResolveClaimTx marks a pending claim approved or denied.
func (s *RewardStore) ResolveClaimTx(tx *sql.Tx, id int64, approved bool, resolvedAt time.Time) error {
	var approvedInt, deniedInt int
	if approved {
		approvedInt = 1
	} else {
		deniedInt = 1
	}
	_, err := tx.Exec(
		`UPDATE claims SET approved = ?, denied = ?, resolved_at = ? WHERE id = ?`,
		approvedInt, deniedInt, resolvedAt.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("resolve claim: %w", err)
	}
	return nil
}

// ListPendingClaims returns claims that are neither approved nor denied,
// oldest first.
func (s *RewardStore) ListPendingClaims() ([]model.Claim, error) {
	rows, err := s.db.Query(
		`SELECT ` + claimCols + ` FROM claims WHERE approved = 0 AND denied = 0 ORDER BY claimed_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending claims: %w", err)
	}
	defer rows.Close()
	return collectClaims(rows)
}

func (s *RewardStore) ListClaimsByChild(childID int64) ([]model.Claim, error) {
	rows, err := s.db.Query(
		`SELECT `+claimCols+` FROM claims WHERE child_id = ? ORDER BY claimed_at DESC`,
		childID,
	)
	if err != nil {
		return nil, fmt.Errorf("list claims by child: %w", err)
	}
	defer rows.Close()
	return collectClaims(rows)
}

func collectClaims(rows *sql.Rows) ([]model.Claim, error) {
	var claims []model.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		claims = append(claims, *c)
	}
	return claims, rows.Err()
}
