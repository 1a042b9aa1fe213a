// Package h264 implements the profile-level-id handling of RFC 6184 needed to
// decide whether two H264 codec descriptions are compatible.
package h264

import (
	"errors"
	"fmt"
	"strconv"
)

type Profile byte

const (
	ProfileConstrainedBaseline Profile = iota + 1
	ProfileBaseline
	ProfileMain
	ProfileConstrainedHigh
	ProfileHigh
	ProfilePredictiveHigh444
)

// Level is ten times the level number; level 1b is represented as 0.
type Level byte

const (
	Level1b Level = 0
	Level1  Level = 10
	Level11 Level = 11
	Level12 Level = 12
	Level13 Level = 13
	Level2  Level = 20
	Level21 Level = 21
	Level22 Level = 22
	Level3  Level = 30
	Level31 Level = 31
	Level32 Level = 32
	Level4  Level = 40
	Level41 Level = 41
	Level42 Level = 42
	Level5  Level = 50
	Level51 Level = 51
	Level52 Level = 52
)

var (
	ErrInvalidProfileLevelId = errors.New("h264: invalid profile-level-id")
	ErrProfileMismatch       = errors.New("h264: profile mismatch")
)

// Parameters are the H264 specific fmtp parameters.
type Parameters struct {
	PacketizationMode     uint8  `json:"packetization-mode,omitempty"`
	ProfileLevelId        string `json:"profile-level-id,omitempty"`
	LevelAsymmetryAllowed uint8  `json:"level-asymmetry-allowed,omitempty"`
}

type ProfileLevelId struct {
	Profile Profile
	Level   Level
}

// String returns the three hex bytes form, or "" if the pair has no
// representation.
func (p ProfileLevelId) String() string {
	if p.Level == Level1b {
		switch p.Profile {
		case ProfileConstrainedBaseline:
			return "42f00b"
		case ProfileBaseline:
			return "42100b"
		case ProfileMain:
			return "4d100b"
		}
		return ""
	}
	prefix, ok := profilePrefixes[p.Profile]
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s%02x", prefix, byte(p.Level))
}

var profilePrefixes = map[Profile]string{
	ProfileConstrainedBaseline: "42e0",
	ProfileBaseline:            "4200",
	ProfileMain:                "4d00",
	ProfileConstrainedHigh:     "640c",
	ProfileHigh:                "6400",
	ProfilePredictiveHigh444:   "f400",
}

// bitPattern matches a byte against a pattern such as "x1xx0000".
type bitPattern struct {
	mask  byte
	value byte
}

func newBitPattern(pattern string) bitPattern {
	var p bitPattern
	for i := 0; i < 8; i++ {
		bit := byte(1) << (7 - i)
		switch pattern[i] {
		case '0':
			p.mask |= bit
		case '1':
			p.mask |= bit
			p.value |= bit
		}
	}
	return p
}

func (p bitPattern) match(b byte) bool {
	return b&p.mask == p.value
}

// profilePatterns maps profile_idc and profile_iop to a profile, see
// https://tools.ietf.org/html/rfc6184#section-8.1.
var profilePatterns = []struct {
	idc     byte
	iop     bitPattern
	profile Profile
}{
	{0x42, newBitPattern("x1xx0000"), ProfileConstrainedBaseline},
	{0x4d, newBitPattern("1xxx0000"), ProfileConstrainedBaseline},
	{0x58, newBitPattern("11xx0000"), ProfileConstrainedBaseline},
	{0x42, newBitPattern("x0xx0000"), ProfileBaseline},
	{0x58, newBitPattern("10xx0000"), ProfileBaseline},
	{0x4d, newBitPattern("0x0x0000"), ProfileMain},
	{0x64, newBitPattern("00000000"), ProfileHigh},
	{0x64, newBitPattern("00001100"), ProfileConstrainedHigh},
	{0xf4, newBitPattern("00000000"), ProfilePredictiveHigh444},
}

// Parse parses three hex bytes. It returns nil for unknown profiles or levels.
func Parse(s string) *ProfileLevelId {
	const constraintSet3 = 0x10

	if len(s) != 6 {
		return nil
	}
	n, err := strconv.ParseUint(s, 16, 32)
	if err != nil || n == 0 {
		return nil
	}
	levelIdc := Level(n & 0xff)
	iop := byte(n >> 8)
	idc := byte(n >> 16)

	var level Level
	switch levelIdc {
	case Level11:
		level = Level11
		if iop&constraintSet3 != 0 {
			level = Level1b
		}
	case Level1, Level12, Level13, Level2, Level21, Level22, Level3, Level31,
		Level32, Level4, Level41, Level42, Level5, Level51, Level52:
		level = levelIdc
	default:
		return nil
	}

	for _, p := range profilePatterns {
		if p.idc == idc && p.iop.match(iop) {
			return &ProfileLevelId{Profile: p.profile, Level: level}
		}
	}
	return nil
}

// ParseSdp is Parse with the WebRTC default (constrained baseline 3.1) for
// an absent value.
func ParseSdp(s string) *ProfileLevelId {
	if len(s) == 0 {
		return &ProfileLevelId{Profile: ProfileConstrainedBaseline, Level: Level31}
	}
	return Parse(s)
}

// IsSameProfile reports whether both values carry the same profile.
func IsSameProfile(a, b string) bool {
	pa, pb := ParseSdp(a), ParseSdp(b)

	return pa != nil && pb != nil && pa.Profile == pb.Profile
}

// GenerateProfileLevelIdForAnswer returns the profile-level-id to answer with
// given the local and the remote parameters, which must share a profile.
// It returns "" when neither side carries a profile-level-id.
func GenerateProfileLevelIdForAnswer(local, remote Parameters) (string, error) {
	if len(local.ProfileLevelId) == 0 && len(remote.ProfileLevelId) == 0 {
		return "", nil
	}
	localId := ParseSdp(local.ProfileLevelId)
	remoteId := ParseSdp(remote.ProfileLevelId)

	if localId == nil || remoteId == nil {
		return "", ErrInvalidProfileLevelId
	}
	if localId.Profile != remoteId.Profile {
		return "", ErrProfileMismatch
	}

	level := minLevel(localId.Level, remoteId.Level)
	if local.LevelAsymmetryAllowed > 0 && remote.LevelAsymmetryAllowed > 0 {
		level = localId.Level
	}
	return ProfileLevelId{Profile: localId.Profile, Level: level}.String(), nil
}

func lessLevel(a, b Level) bool {
	if a == Level1b {
		return b != Level1 && b != Level1b
	}
	if b == Level1b {
		return a != Level1
	}
	return a < b
}

func minLevel(a, b Level) Level {
	if lessLevel(a, b) {
		return a
	}
	return b
}
