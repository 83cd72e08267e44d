package fixtures

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestEmbedded(t *testing.T) {
	set, err := Embedded()
	require.NoError(t, err)

	counts := set.Counts()
	for _, kind := range Kinds {
		require.Positive(t, counts[kind], kind)
	}

	var flagged *Transaction
	for i := range set.Transactions {
		if set.Transactions[i].ID == "txn-1004" {
			flagged = &set.Transactions[i]
		}
	}
	require.NotNil(t, flagged)
	require.Equal(t, TransactionFlagged, flagged.Status)
	require.True(t, flagged.FraudCheck.Flagged)
	require.Len(t, flagged.Timeline, 3)
	require.Nil(t, flagged.PolicyCheck)
}

func TestItems(t *testing.T) {
	set, err := Embedded()
	require.NoError(t, err)

	items, err := set.Items(KindHotels)
	require.NoError(t, err)
	require.Len(t, items, len(set.Hotels))
	for i := 1; i < len(items); i++ {
		require.Less(t, items[i-1].ID, items[i].ID)
	}
	require.Contains(t, items[0].Text, items[0].Title)
	require.NotEmpty(t, items[0].Data)

	_, err = set.Items("nope")
	require.ErrorIs(t, err, ErrInvalidFixture)
}

func TestLoad_MissingFilesAreEmpty(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "data/users.json", []byte(`[{"id":"u1","name":"Test"}]`), 0o644))

	set, err := Load(fsys)
	require.NoError(t, err)
	require.Len(t, set.Users, 1)
	require.Empty(t, set.Transactions)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"malformed":    `[{"id":`,
		"duplicate id": `[{"id":"t1","status":"approved"},{"id":"t1","status":"approved"}]`,
		"missing id":   `[{"merchant":"x","status":"approved"}]`,
		"bad status":   `[{"id":"t1","status":"lost"}]`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			fsys := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fsys, "data/transactions.json", []byte(body), 0o644))
			_, err := Load(fsys)
			require.ErrorIs(t, err, ErrInvalidFixture)
		})
	}
}

func TestLayered_OverridesPerCollection(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hotels.json"),
		[]byte(`[{"id":"ht-test","name":"Test Inn","city":"Lisbon","nightly_rate":99}]`), 0o644))

	set, err := Layered(dir)
	require.NoError(t, err)
	require.Len(t, set.Hotels, 1)
	require.Equal(t, "Lisbon", set.Hotels[0].City)

	embedded, err := Embedded()
	require.NoError(t, err)
	require.Len(t, set.Transactions, len(embedded.Transactions))

	_, err = Layered(filepath.Join(dir, "missing"))
	require.Error(t, err)
}
