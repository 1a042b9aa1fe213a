package mediasoup

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// TestingSuite makes suite assertions fatal and gives each test a fresh fake
// worker on demand.
type TestingSuite struct {
	suite.Suite
	*require.Assertions
}

func (s *TestingSuite) SetT(t *testing.T) {
	s.Suite.SetT(t)
	s.Assertions = require.New(t)
}

func (s *TestingSuite) Fn() *MockFunc {
	return NewMockFunc(s.T())
}

func (s *TestingSuite) newRouter(mediaCodecs ...*RtpCodecCapability) *Router {
	router, err := newTestWorker(s.T()).CreateRouter(&RouterOptions{MediaCodecs: mediaCodecs})
	s.NoError(err)

	return router
}
