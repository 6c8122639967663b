package seed

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEveryFixtureDecodes(t *testing.T) {
	names := Names()
	require.Contains(t, names, "activity")
	require.Contains(t, names, "settings")
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			items, err := Load[map[string]any](name)
			require.NoError(t, err)
			require.NotEmpty(t, items)
			for _, item := range items {
				require.NotEmpty(t, item["id"], "every fixture record carries an id")
			}
		})
	}
}

func TestLoadUnknownFixture(t *testing.T) {
	_, err := Load[map[string]any]("nope")
	require.Error(t, err)
	require.Panics(t, func() { Func[map[string]any]("nope")() })
}
