package xmpp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBareJID(t *testing.T) {
	tests := []struct {
		name string
		jid  string
		want string
	}{
		{
			name: "full JID with resource",
			jid:  "alice@example.org/mobile",
			want: "alice@example.org",
		},
		{
			name: "bare JID unchanged",
			jid:  "alice@example.org",
			want: "alice@example.org",
		},
		{
			name: "resource containing slashes",
			jid:  "alice@example.org/res/extra",
			want: "alice@example.org",
		},
		{
			name: "empty JID",
			jid:  "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BareJID(tt.jid))
		})
	}
}

func TestDeliveryLabel(t *testing.T) {
	assert.Equal(t, "markup", deliveryLabel(true))
	assert.Equal(t, "plain", deliveryLabel(false))
}
