package cli

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentordesk/mentordesk/internal/app"
	"github.com/mentordesk/mentordesk/internal/kyc"
	"github.com/mentordesk/mentordesk/internal/shared"
	"github.com/mentordesk/mentordesk/internal/store"
	"github.com/mentordesk/mentordesk/internal/testing/testenv"
	_ "github.com/mentordesk/mentordesk/testing"
)

func fileOpener(dir string) Opener {
	return func(ctx context.Context) (*app.Runtime, error) {
		cfg := &app.Config{
			StoreDriver:         store.DriverFile,
			StoreDir:            dir,
			StoreNamespace:      "mentordesk",
			Scheduler:           app.SchedulerTimer,
			ReplyDeliveredAfter: time.Millisecond,
			ReplyReadAfter:      time.Millisecond,
			RedeliveryAfter:     time.Millisecond,
			MenteeConfirmDelay:  time.Millisecond,
			KYCMaxUpload:        kyc.DefaultMaxUpload,
			NoticeCapacity:      10,
		}
		return app.Bootstrap(ctx, cfg, testenv.Logger())
	}
}

func run(t *testing.T, open Opener, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(open)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand(DefaultOpener)
	assert.Equal(t, "mentorctl", cmd.Use)
	for _, name := range []string{"list", "export", "receipt", "seed"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)

	seed, _, err := cmd.Find([]string{"seed"})
	require.NoError(t, err)
	force := seed.Flags().Lookup("force")
	require.NotNil(t, force)
	assert.Equal(t, "false", force.DefValue)
}

func TestInvalidFormatIsRejected(t *testing.T) {
	_, err := run(t, fileOpener(t.TempDir()), "list", "--format", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestListCollections(t *testing.T) {
	open := fileOpener(t.TempDir())

	out, err := run(t, open, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "mentordesk.reviews.reviews\n")
	assert.Contains(t, out, "mentordesk.settings.settings\n")

	out, err = run(t, open, "list", "mentees.mentees", "--format", "json")
	require.NoError(t, err)
	var records []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 6)
	assert.Equal(t, "mentee-101", records[0]["id"])

	out, err = run(t, open, "list", "mentees.mentees")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# mentordesk.mentees.mentees (6 records)\n"))

	_, err = run(t, open, "list", "nope")
	require.Error(t, err)
}

func TestSeedOnlyFillsEmptyCollections(t *testing.T) {
	open := fileOpener(t.TempDir())

	out, err := run(t, open, "seed", "--format", "json")
	require.NoError(t, err)
	var first SeedResult
	require.NoError(t, json.Unmarshal([]byte(out), &first))
	assert.Len(t, first.Written, 16)
	assert.Empty(t, first.Skipped)

	out, err = run(t, open, "seed", "--format", "json")
	require.NoError(t, err)
	var second SeedResult
	require.NoError(t, json.Unmarshal([]byte(out), &second))
	assert.Empty(t, second.Written)
	assert.Len(t, second.Skipped, 16)

	out, err = run(t, open, "seed", "--force")
	require.NoError(t, err)
	assert.Equal(t, 16, strings.Count(out, "seeded  "))
}

func TestExportActivity(t *testing.T) {
	open := fileOpener(t.TempDir())

	out, err := run(t, open, "export", "activity")
	require.NoError(t, err)
	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 9)
	assert.Equal(t, []string{"id", "kind", "title", "description", "actor", "tags", "created_at", "read", "archived"}, rows[0])

	out, err = run(t, open, "export", "activity", "--filter", "q=no-such-activity")
	require.NoError(t, err)
	assert.Equal(t, "id,kind,title,description,actor,tags,created_at,read,archived\n", out)

	_, err = run(t, open, "export", "reviews")
	require.Error(t, err)
}

func TestReceipt(t *testing.T) {
	open := fileOpener(t.TempDir())

	out, err := run(t, open, "receipt", "invoice", "INV-2042")
	require.NoError(t, err)
	assert.Contains(t, out, "id: INV-2042\n")
	assert.Contains(t, out, "amount: USD 120.00\n")

	out, err = run(t, open, "receipt", "payout", "PO-7003")
	require.NoError(t, err)
	assert.Contains(t, out, "reference: ACH-55120984\n")

	_, err = run(t, open, "receipt", "invoice", "INV-0")
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = run(t, open, "receipt", "refund", "INV-2042")
	var usage *UsageError
	require.ErrorAs(t, err, &usage)
}
