package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Quidge/webfeatures/internal/featuremap"
)

// ErrFeatureNotFound is returned when a feature is not in the index.
var ErrFeatureNotFound = errors.New("feature not found")

// ErrNoBuild is returned by LatestBuild when the index has never been filled.
var ErrNoBuild = errors.New("no build recorded")

// BuildInfo describes the manifest build being indexed.
type BuildInfo struct {
	Version  int
	RepoRoot string
	URLBase  string
	Revision string // May be empty
}

// Build is a recorded build.
type Build struct {
	ID        int64
	Version   int
	RepoRoot  string
	URLBase   string
	Revision  string
	Features  int
	Tests     int
	CreatedAt time.Time
}

// FeatureSummary is a feature with the number of tests associated with it.
type FeatureSummary struct {
	Name  string
	Tests int
}

// Replace discards the current index contents and stores fm, recording info
// as a new build. It runs in a single transaction.
func (db *DB) Replace(fm *featuremap.Map, info BuildInfo) (*Build, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"feature_tests", "features", "tests"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return nil, fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	testIDs := make(map[string]int64)
	for i, entry := range fm.Entries() {
		res, err := tx.Exec("INSERT INTO features (name, position) VALUES (?, ?)", entry.Feature, i)
		if err != nil {
			return nil, fmt.Errorf("failed to insert feature %s: %w", entry.Feature, err)
		}
		featureID, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("failed to get feature id: %w", err)
		}

		for j, path := range entry.Tests {
			testID, ok := testIDs[path]
			if !ok {
				res, err := tx.Exec("INSERT INTO tests (path) VALUES (?)", path)
				if err != nil {
					return nil, fmt.Errorf("failed to insert test %s: %w", path, err)
				}
				testID, err = res.LastInsertId()
				if err != nil {
					return nil, fmt.Errorf("failed to get test id: %w", err)
				}
				testIDs[path] = testID
			}

			_, err = tx.Exec(
				"INSERT INTO feature_tests (feature_id, test_id, position) VALUES (?, ?, ?)",
				featureID, testID, j,
			)
			if err != nil {
				return nil, fmt.Errorf("failed to associate %s with %s: %w", path, entry.Feature, err)
			}
		}
	}

	build := &Build{
		Version:   info.Version,
		RepoRoot:  info.RepoRoot,
		URLBase:   info.URLBase,
		Revision:  info.Revision,
		Features:  fm.Len(),
		Tests:     len(testIDs),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	res, err := tx.Exec(`
		INSERT INTO builds (version, repo_root, url_base, revision, features, tests, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		build.Version, build.RepoRoot, build.URLBase, nullString(build.Revision), build.Features, build.Tests,
		build.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record build: %w", err)
	}
	build.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get build id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit index: %w", err)
	}
	return build, nil
}

// TestsForFeature returns the tests associated with feature in manifest order.
// Returns ErrFeatureNotFound if the feature is not indexed.
func (db *DB) TestsForFeature(feature string) ([]string, error) {
	var featureID int64
	err := db.QueryRow("SELECT id FROM features WHERE name = ?", feature).Scan(&featureID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrFeatureNotFound, feature)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up feature: %w", err)
	}

	rows, err := db.Query(`
		SELECT t.path
		FROM feature_tests ft
		JOIN tests t ON t.id = ft.test_id
		WHERE ft.feature_id = ?
		ORDER BY ft.position`, featureID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tests: %w", err)
	}
	return scanStrings(rows)
}

// FeaturesForTest returns the features a test is associated with, in manifest
// order. An unknown test yields an empty slice.
func (db *DB) FeaturesForTest(path string) ([]string, error) {
	rows, err := db.Query(`
		SELECT f.name
		FROM feature_tests ft
		JOIN features f ON f.id = ft.feature_id
		JOIN tests t ON t.id = ft.test_id
		WHERE t.path = ?
		ORDER BY f.position`, path)
	if err != nil {
		return nil, fmt.Errorf("failed to list features: %w", err)
	}
	return scanStrings(rows)
}

// ListFeatures returns every indexed feature with its test count, in
// manifest order.
func (db *DB) ListFeatures() ([]FeatureSummary, error) {
	rows, err := db.Query(`
		SELECT f.name, COUNT(ft.test_id)
		FROM features f
		LEFT JOIN feature_tests ft ON ft.feature_id = f.id
		GROUP BY f.id
		ORDER BY f.position`)
	if err != nil {
		return nil, fmt.Errorf("failed to list features: %w", err)
	}
	defer rows.Close()

	var out []FeatureSummary
	for rows.Next() {
		var s FeatureSummary
		if err := rows.Scan(&s.Name, &s.Tests); err != nil {
			return nil, fmt.Errorf("failed to scan feature: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating features: %w", err)
	}
	return out, nil
}

// LatestBuild returns the most recently recorded build.
func (db *DB) LatestBuild() (*Build, error) {
	var b Build
	var revision sql.NullString
	var createdAt string
	err := db.QueryRow(`
		SELECT id, version, repo_root, url_base, revision, features, tests, created_at
		FROM builds
		ORDER BY id DESC
		LIMIT 1`).Scan(&b.ID, &b.Version, &b.RepoRoot, &b.URLBase, &revision, &b.Features, &b.Tests, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoBuild
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest build: %w", err)
	}

	b.Revision = revision.String

	b.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return &b, nil
}

// Export rebuilds the feature map from the index, preserving manifest order.
func (db *DB) Export() (*featuremap.Map, error) {
	rows, err := db.Query(`
		SELECT f.name, t.path
		FROM features f
		LEFT JOIN feature_tests ft ON ft.feature_id = f.id
		LEFT JOIN tests t ON t.id = ft.test_id
		ORDER BY f.position, ft.position`)
	if err != nil {
		return nil, fmt.Errorf("failed to export index: %w", err)
	}
	defer rows.Close()

	fm := featuremap.New()
	for rows.Next() {
		var name string
		var path sql.NullString
		if err := rows.Scan(&name, &path); err != nil {
			return nil, fmt.Errorf("failed to scan association: %w", err)
		}
		if path.Valid {
			fm.AddPaths(name, path.String)
		} else {
			fm.AddPaths(name)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating associations: %w", err)
	}
	return fm, nil
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
