package sec

import (
	"fmt"
	"testing"

	"github.com/rigado/btsec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bit(v, i int) bool { return v&(1<<uint(i)) != 0 }

// TestEvaluateExhaustive walks every combination of requirement bits, link
// flags and peer state.
func TestEvaluateExhaustive(t *testing.T) {
	keyTypes := []btsec.KeyType{btsec.KeyUnauthComb, btsec.KeyAuthCombP256}

	n := 0
	for req := 0; req < 1<<4; req++ {
		for fl := 0; fl < 1<<3; fl++ {
			for env := 0; env < 1<<7; env++ {
				for _, kt := range keyTypes {
					in := PolicyInput{
						Req: RequirementSet{
							Authenticate: bit(req, 0),
							Encrypt:      bit(req, 1),
							Authorize:    bit(req, 2),
							SecureConn:   bit(req, 3),
						},
						Originator: bit(env, 0),
						Mux:        bit(env, 1),
						Trusted:    bit(env, 2),
						SPMode:     bit(env, 3),
						PeerLegacy: bit(env, 4),
						KeyType:    kt,
					}
					sm4, upgrade := bit(env, 5), bit(env, 6)

					auth, enc, az := bit(fl, 0), bit(fl, 1), bit(fl, 2)
					if enc && !auth {
						// an encrypted link is always authenticated
						continue
					}
					if auth {
						in.Flags |= FlagAuthenticated
					}
					if enc {
						in.Flags |= FlagEncrypted
					}
					if az {
						in.Flags |= FlagAuthorized
					}

					d := Evaluate(in, sm4, upgrade)
					n++
					name := fmt.Sprintf("%+v sm4=%v upgrade=%v", in, sm4, upgrade)

					weakKey := in.Req.SecureConn && auth && kt != btsec.KeyAuthCombP256
					if weakKey {
						require.Equal(t, Denied, d.Verdict, name)
						continue
					}
					require.NotEqual(t, Denied, d.Verdict, name)

					switch d.Verdict {
					case Granted:
						legacyTable := !in.SPMode || in.PeerLegacy || (sm4 && !upgrade)
						require.True(t, legacyTable, name)
						require.True(t, !in.Req.Authenticate || auth, name)
						require.True(t, !in.Req.Encrypt || enc, name)
						require.True(t, !in.Req.Authorize || az || (!in.Originator && in.Trusted), name)
						require.False(t, in.Mux && in.Req.Authenticate && in.Req.Encrypt && in.Req.Authorize, name)
					case NeedsProcedure:
						require.NotEqual(t, ProcNone, d.Procedure, name)
					}
				}
			}
		}
	}
	assert.Equal(t, 16*6*128*2, n)
}

func TestEvaluate(t *testing.T) {
	authEnc := FlagAuthenticated | FlagEncrypted

	tests := []struct {
		name    string
		in      PolicyInput
		sm4     bool
		upgrade bool
		want    Decision
	}{
		{
			name: "nothing required",
			in:   PolicyInput{},
			want: Decision{Verdict: Granted},
		},
		{
			name: "trusted acceptor skips authorization",
			in:   PolicyInput{Req: RequirementSet{Authorize: true}, Trusted: true},
			want: Decision{Verdict: Granted},
		},
		{
			name: "trust does not cover the originator",
			in:   PolicyInput{Req: RequirementSet{Authenticate: true, Encrypt: true, Authorize: true}, Originator: true, Flags: authEnc, Trusted: true},
			want: Decision{Verdict: NeedsProcedure, Procedure: ProcAuthorize},
		},
		{
			name: "encryption missing",
			in:   PolicyInput{Req: RequirementSet{Authenticate: true, Encrypt: true}, Flags: FlagAuthenticated},
			want: Decision{Verdict: NeedsProcedure, Procedure: ProcEncrypt},
		},
		{
			name: "multiplexer channels authorize again",
			in:   PolicyInput{Req: RequirementSet{Authenticate: true, Encrypt: true, Authorize: true}, Mux: true, Flags: authEnc | FlagAuthorized},
			want: Decision{Verdict: NeedsProcedure, Procedure: ProcAuthenticate},
		},
		{
			name:    "ssp peer with upgradable key waits",
			in:      PolicyInput{Req: RequirementSet{Authenticate: true}, SPMode: true, Flags: authEnc},
			sm4:     true,
			upgrade: true,
			want:    Decision{Verdict: NeedsProcedure, Procedure: ProcAuthenticate},
		},
		{
			name: "ssp peer with final key uses the legacy table",
			in:   PolicyInput{Req: RequirementSet{Authenticate: true}, SPMode: true, Flags: authEnc},
			sm4:  true,
			want: Decision{Verdict: Granted},
		},
		{
			name: "ssp peer with final key and nothing required",
			in:   PolicyInput{SPMode: true, Flags: FlagAuthenticated},
			sm4:  true,
			want: Decision{Verdict: Granted},
		},
		{
			name:    "unknown peer in ssp mode waits",
			in:      PolicyInput{SPMode: true},
			upgrade: true,
			want:    Decision{Verdict: NeedsProcedure, Procedure: ProcAuthenticate},
		},
		{
			name: "weak key for secure connections",
			in:   PolicyInput{Req: RequirementSet{SecureConn: true}, Flags: authEnc, KeyType: btsec.KeyAuthComb},
			want: Decision{Verdict: Denied},
		},
		{
			name: "p-256 key for secure connections",
			in:   PolicyInput{Req: RequirementSet{Authenticate: true, SecureConn: true}, Flags: authEnc, KeyType: btsec.KeyAuthCombP256},
			want: Decision{Verdict: Granted},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.in, tt.sm4, tt.upgrade))
		})
	}
}
