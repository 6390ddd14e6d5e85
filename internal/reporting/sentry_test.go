package reporting

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeError(t *testing.T) {
	t.Parallel()

	t.Run("hex pubkey in url", func(t *testing.T) {
		t.Parallel()

		err := `manual load failed: Get "https://backend.example.com/nostr-users?pubkey=82341f882b6eabcd2ba7f1ef90aad961cf074af15b9ef44a09f9d2a8fbfbe6a2": read: connection reset by peer`
		want := `manual load failed: Get "https://backend.example.com/nostr-users?pubkey=<pubkey>": read: connection reset by peer`
		require.Equal(t, want, sanitizeError(err))
	})

	t.Run("npub in error", func(t *testing.T) {
		t.Parallel()

		err := `failed to process user npub180cvv07tjdrrgpa0j7j7tmnyl2yr6yr7l8j4s3evf6u64th6gkwsyjh6w6: invalid profile`
		want := `failed to process user <pubkey>: invalid profile`
		require.Equal(t, want, sanitizeError(err))
	})

	t.Run("ipv6 hosts", func(t *testing.T) {
		t.Parallel()

		err := `read tcp [dead:beef:feb1:d745::c001]:64079->[dead:beef::6811:112a]:443: read: connection reset by peer`
		want := `read tcp <host>-><host>: read: connection reset by peer`
		require.Equal(t, want, sanitizeError(err))
	})

	t.Run("short hex strings are left alone", func(t *testing.T) {
		t.Parallel()

		err := `failed to parse field deadbeef`
		require.Equal(t, err, sanitizeError(err))
	})

	t.Run("context deadline", func(t *testing.T) {
		t.Parallel()

		err := `auto cycle failed: Post "https://backend.example.com/process-users": context deadline exceeded (Client.Timeout exceeded while awaiting headers)`
		require.Equal(t, err, sanitizeError(err))
	})
}
