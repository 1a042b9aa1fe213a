package mediasoup

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pion/sctp"

	"github.com/mediaplane/mediasoup-go/internal/h264"
)

// dynamicPayloadTypes is the allocation order of payload types not set
// explicitly.
var dynamicPayloadTypes = [...]uint8{
	100, 101, 102, 103, 104, 105, 106, 107, 108, 109, 110, 111, 112, 113, 114, 115,
	116, 117, 118, 119, 120, 121, 122, 123, 124, 125, 126, 127, 96, 97, 98, 99, 77,
	78, 79, 80, 81, 82, 83, 84, 85, 86, 87, 88, 89, 90, 91, 92, 93, 94, 95, 35, 36,
	37, 38, 39, 40, 41, 42, 43, 44, 45, 46, 47, 48, 49, 50, 51, 52, 53, 54, 55, 56,
	57, 58, 59, 60, 61, 62, 63, 64, 65, 66, 67, 68, 69, 70, 71,
}

type matchOptions struct {
	// strict also compares the profile of H264 and VP9 codecs.
	strict bool
	// modify rewrites the H264 profile-level-id of the first codec to the
	// answer of the match.
	modify bool
}

// negotiationOptions is everything getConsumerRtpParameters needs besides the
// consumable parameters and the capabilities of the device.
type negotiationOptions struct {
	// UsedPayloadTypes are the payload types the consumer must not use.
	UsedPayloadTypes []uint8
	// Mid is assigned to the consumer parameters.
	Mid string
	// Pipe passes the consumable parameters through.
	Pipe bool
	// EnableRtx keeps RTX in pipe mode.
	EnableRtx bool
	// NewSsrc generates SSRCs, generateRandomNumber if unset.
	NewSsrc func() uint32
}

func (o negotiationOptions) newSsrc() uint32 {
	if o.NewSsrc != nil {
		return o.NewSsrc()
	}
	return generateRandomNumber()
}

func validateRtpCapabilities(caps *RtpCapabilities) error {
	if caps == nil {
		return NewTypeError("missing rtpCapabilities")
	}
	for _, codec := range caps.Codecs {
		if err := validateRtpCodecCapability(codec); err != nil {
			return err
		}
	}
	for _, ext := range caps.HeaderExtensions {
		if err := validateRtpHeaderExtension(ext); err != nil {
			return err
		}
	}
	return nil
}

// validateRtpCodecCapability fills the kind and the default channels of
// codec.
func validateRtpCodecCapability(codec *RtpCodecCapability) error {
	if codec == nil {
		return NewTypeError("missing codec")
	}
	kind, ok := kindOfMimeType(codec.MimeType)
	if !ok {
		return NewTypeError("invalid codec.mimeType %q", codec.MimeType)
	}
	codec.Kind = kind

	if codec.ClockRate == 0 {
		return NewTypeError("missing codec.clockRate")
	}
	if kind == MediaKindAudio && codec.Channels == 0 {
		codec.Channels = 1
	}
	if codec.isRtxCodec() && codec.Parameters.Apt == 0 && codec.PreferredPayloadType > 0 {
		return NewTypeError("missing codec.parameters.apt")
	}
	for _, fb := range codec.RtcpFeedback {
		if err := validateRtcpFeedback(fb); err != nil {
			return err
		}
	}
	return nil
}

func validateRtcpFeedback(fb *RtcpFeedback) error {
	if fb == nil || len(fb.Type) == 0 {
		return NewTypeError("missing fb.type")
	}
	return nil
}

func validateRtpHeaderExtension(ext *RtpHeaderExtension) error {
	if ext == nil {
		return NewTypeError("missing ext")
	}
	if ext.Kind != MediaKindAudio && ext.Kind != MediaKindVideo {
		return NewTypeError("invalid ext.kind %q", ext.Kind)
	}
	if len(ext.Uri) == 0 {
		return NewTypeError("missing ext.uri")
	}
	if ext.PreferredId == 0 {
		return NewTypeError("missing ext.preferredId")
	}
	if len(ext.Direction) == 0 {
		ext.Direction = MediaDirectionSendrecv
	}
	return nil
}

// validateRtpParameters checks the parameters given to produce and fills the
// RTCP defaults.
func validateRtpParameters(params *RtpParameters) error {
	if params == nil {
		return NewTypeError("missing rtpParameters")
	}
	if len(params.Codecs) == 0 {
		return NewTypeError("empty rtpParameters.codecs")
	}
	for _, codec := range params.Codecs {
		if err := validateRtpCodecParameters(codec); err != nil {
			return err
		}
	}
	for _, ext := range params.HeaderExtensions {
		if err := validateRtpHeaderExtensionParameters(ext); err != nil {
			return err
		}
	}
	for _, encoding := range params.Encodings {
		if encoding == nil {
			return NewTypeError("missing encoding")
		}
		if encoding.Rtx != nil && encoding.Rtx.Ssrc == 0 {
			return NewTypeError("missing encoding.rtx.ssrc")
		}
	}
	if params.Rtcp == nil {
		params.Rtcp = &RtcpParameters{}
	}
	return validateRtcpParameters(params.Rtcp)
}

func validateRtpCodecParameters(codec *RtpCodecParameters) error {
	if codec == nil {
		return NewTypeError("missing codec")
	}
	kind, ok := kindOfMimeType(codec.MimeType)
	if !ok {
		return NewTypeError("invalid codec.mimeType %q", codec.MimeType)
	}
	if codec.ClockRate == 0 {
		return NewTypeError("missing codec.clockRate")
	}
	if kind == MediaKindAudio && codec.Channels == 0 {
		codec.Channels = 1
	}
	if codec.isRtxCodec() && codec.Parameters.Apt == 0 {
		return NewTypeError("missing codec.parameters.apt")
	}
	for _, fb := range codec.RtcpFeedback {
		if err := validateRtcpFeedback(fb); err != nil {
			return err
		}
	}
	return nil
}

func validateRtpHeaderExtensionParameters(ext *RtpHeaderExtensionParameters) error {
	if ext == nil {
		return NewTypeError("missing ext")
	}
	if len(ext.Uri) == 0 {
		return NewTypeError("missing ext.uri")
	}
	if ext.Id == 0 {
		return NewTypeError("missing ext.id")
	}
	return nil
}

func validateRtcpParameters(rtcp *RtcpParameters) error {
	if rtcp.ReducedSize == nil {
		rtcp.ReducedSize = ref(true)
	}
	if rtcp.Mux == nil {
		rtcp.Mux = ref(true)
	}
	return nil
}

func validateSctpCapabilities(caps *SctpCapabilities) error {
	if caps == nil {
		return NewTypeError("missing sctpCapabilities")
	}
	return validateNumSctpStreams(caps.NumStreams)
}

func validateNumSctpStreams(numStreams NumSctpStreams) error {
	if numStreams.OS == 0 {
		return NewTypeError("missing numStreams.OS")
	}
	if numStreams.MIS == 0 {
		return NewTypeError("missing numStreams.MIS")
	}
	return nil
}

func validateSctpParameters(params *SctpParameters) error {
	switch {
	case params == nil:
		return NewTypeError("missing sctpParameters")
	case params.Port == 0:
		return NewTypeError("missing sctpParameters.port")
	case params.OS == 0:
		return NewTypeError("missing sctpParameters.OS")
	case params.MIS == 0:
		return NewTypeError("missing sctpParameters.MIS")
	case params.MaxMessageSize == 0:
		return NewTypeError("missing sctpParameters.maxMessageSize")
	}
	return nil
}

// validateSctpStreamParameters fills the default of Ordered.
func validateSctpStreamParameters(params *SctpStreamParameters) error {
	if params == nil {
		return NewTypeError("missing sctpStreamParameters")
	}
	if params.MaxPacketLifeTime > 0 && params.MaxRetransmits > 0 {
		return NewTypeError("cannot provide both maxPacketLifeTime and maxRetransmits")
	}
	typ, _ := params.ReliabilityType()
	partial := typ != sctp.ReliabilityTypeReliable

	if params.Ordered == nil {
		params.Ordered = ref(!partial)
	} else if *params.Ordered && partial {
		return NewTypeError("cannot be ordered with maxPacketLifeTime or maxRetransmits")
	}
	return nil
}

// generateRouterRtpCapabilities generates the RTP capabilities of a router
// from the given media codecs and the supported capabilities. A RTX codec is
// added after every video codec.
func generateRouterRtpCapabilities(mediaCodecs []*RtpCodecCapability) (*RtpCapabilities, error) {
	if len(mediaCodecs) == 0 {
		return nil, NewTypeError("empty mediaCodecs")
	}
	supported := GetSupportedRtpCapabilities()
	caps := &RtpCapabilities{HeaderExtensions: supported.HeaderExtensions}

	free := append([]uint8(nil), dynamicPayloadTypes[:]...)
	takeFree := func() (uint8, error) {
		if len(free) == 0 {
			return 0, NewUnsupportedError("cannot allocate more dynamic codec payload types")
		}
		pt := free[0]
		free = free[1:]
		return pt, nil
	}
	removeFree := func(pt uint8) {
		for i, v := range free {
			if v == pt {
				free = append(free[:i:i], free[i+1:]...)
				return
			}
		}
	}

	for _, mediaCodec := range mediaCodecs {
		if err := validateRtpCodecCapability(mediaCodec); err != nil {
			return nil, err
		}
		if mediaCodec.isRtxCodec() {
			return nil, NewTypeError("media codec cannot be RTX")
		}
		matched := findMatchedCodec(capabilityAsParameters(mediaCodec), supported.Codecs, matchOptions{})
		if matched == nil {
			return nil, NewUnsupportedError("media codec not supported [mimeType:%s]", mediaCodec.MimeType)
		}
		codec := clone(matched)

		switch {
		case mediaCodec.PreferredPayloadType > 0:
			codec.PreferredPayloadType = mediaCodec.PreferredPayloadType
			removeFree(codec.PreferredPayloadType)
		case codec.PreferredPayloadType == 0 && !strings.EqualFold(codec.MimeType, "audio/PCMU"):
			pt, err := takeFree()
			if err != nil {
				return nil, err
			}
			codec.PreferredPayloadType = pt
		}

		for _, capCodec := range caps.Codecs {
			if capCodec.PreferredPayloadType == codec.PreferredPayloadType {
				return nil, NewTypeError("duplicated codec.preferredPayloadType %d", codec.PreferredPayloadType)
			}
		}
		if err := override(&codec.Parameters, mediaCodec.Parameters); err != nil {
			return nil, err
		}
		caps.Codecs = append(caps.Codecs, codec)

		if codec.Kind != MediaKindVideo {
			continue
		}
		pt, err := takeFree()
		if err != nil {
			return nil, err
		}
		caps.Codecs = append(caps.Codecs, &RtpCodecCapability{
			Kind:                 codec.Kind,
			MimeType:             fmt.Sprintf("%s/rtx", codec.Kind),
			PreferredPayloadType: pt,
			ClockRate:            codec.ClockRate,
			Parameters:           RtpCodecSpecificParameters{Apt: codec.PreferredPayloadType},
		})
	}

	return caps, nil
}

// getProducerRtpParametersMapping maps the codec payload types and encodings
// of the producer parameters to the values expected by the router. Matched
// H264 codecs get their profile-level-id rewritten to the router answer.
func getProducerRtpParametersMapping(params *RtpParameters, caps *RtpCapabilities) (*RtpMapping, error) {
	codecToCapCodec := make(map[*RtpCodecParameters]*RtpCodecCapability, len(params.Codecs))

	for _, codec := range params.Codecs {
		if codec.isRtxCodec() {
			continue
		}
		capCodec := findMatchedCodec(codec, caps.Codecs, matchOptions{strict: true, modify: true})
		if capCodec == nil {
			return nil, NewUnsupportedError("unsupported codec [mimeType:%s, payloadType:%d]", codec.MimeType, codec.PayloadType)
		}
		codecToCapCodec[codec] = capCodec
	}

	for _, codec := range params.Codecs {
		if !codec.isRtxCodec() {
			continue
		}
		var mediaCodec *RtpCodecParameters
		for _, c := range params.Codecs {
			if !c.isRtxCodec() && c.PayloadType == codec.Parameters.Apt {
				mediaCodec = c
				break
			}
		}
		if mediaCodec == nil {
			return nil, NewTypeError("missing media codec found for RTX PT %d", codec.PayloadType)
		}
		capMediaCodec := codecToCapCodec[mediaCodec]

		var capRtxCodec *RtpCodecCapability
		for _, c := range caps.Codecs {
			if c.isRtxCodec() && c.Parameters.Apt == capMediaCodec.PreferredPayloadType {
				capRtxCodec = c
				break
			}
		}
		if capRtxCodec == nil {
			return nil, NewUnsupportedError("no RTX codec for capability codec PT %d", capMediaCodec.PreferredPayloadType)
		}
		codecToCapCodec[codec] = capRtxCodec
	}

	mapping := &RtpMapping{}

	for _, codec := range params.Codecs {
		mapping.Codecs = append(mapping.Codecs, RtpMappingCodec{
			PayloadType:       codec.PayloadType,
			MappedPayloadType: codecToCapCodec[codec].PreferredPayloadType,
		})
	}

	mappedSsrc := generateRandomNumber()

	for _, encoding := range params.Encodings {
		mapping.Encodings = append(mapping.Encodings, RtpMappingEncoding{
			Ssrc:            encoding.Ssrc,
			Rid:             encoding.Rid,
			ScalabilityMode: encoding.ScalabilityMode,
			MappedSsrc:      mappedSsrc,
		})
		mappedSsrc++
	}

	return mapping, nil
}

// getConsumableRtpParameters computes the consumable parameters of a
// producer: router payload types, every RTX codec right after its media
// codec, mapped SSRCs and the header extensions the router can send.
func getConsumableRtpParameters(
	kind MediaKind,
	params *RtpParameters,
	caps *RtpCapabilities,
	mapping *RtpMapping,
) *ConsumableRtpParameters {
	consumable := &ConsumableRtpParameters{}

	for _, codec := range params.Codecs {
		if codec.isRtxCodec() {
			continue
		}
		var mappedPt uint8
		for _, entry := range mapping.Codecs {
			if entry.PayloadType == codec.PayloadType {
				mappedPt = entry.MappedPayloadType
				break
			}
		}
		var capCodec *RtpCodecCapability
		for _, c := range caps.Codecs {
			if c.PreferredPayloadType == mappedPt {
				capCodec = c
				break
			}
		}
		if capCodec == nil {
			continue
		}
		consumable.Codecs = append(consumable.Codecs, &RtpCodecParameters{
			MimeType:    capCodec.MimeType,
			PayloadType: capCodec.PreferredPayloadType,
			ClockRate:   capCodec.ClockRate,
			Channels:    capCodec.Channels,
			// The producer parameters are kept.
			Parameters:   codec.Parameters,
			RtcpFeedback: clone(capCodec.RtcpFeedback),
		})

		for _, c := range caps.Codecs {
			if c.isRtxCodec() && c.Parameters.Apt == capCodec.PreferredPayloadType {
				consumable.Codecs = append(consumable.Codecs, &RtpCodecParameters{
					MimeType:     c.MimeType,
					PayloadType:  c.PreferredPayloadType,
					ClockRate:    c.ClockRate,
					Parameters:   RtpCodecSpecificParameters{Apt: capCodec.PreferredPayloadType},
					RtcpFeedback: clone(c.RtcpFeedback),
				})
				break
			}
		}
	}

	for _, capExt := range caps.HeaderExtensions {
		if capExt.Kind != kind ||
			(capExt.Direction != MediaDirectionSendrecv && capExt.Direction != MediaDirectionSendonly) {
			continue
		}
		consumable.HeaderExtensions = append(consumable.HeaderExtensions, &RtpHeaderExtensionParameters{
			Uri:     capExt.Uri,
			Id:      capExt.PreferredId,
			Encrypt: capExt.PreferredEncrypt,
		})
	}

	for i, encoding := range params.Encodings {
		e := clone(encoding)
		e.Rid = ""
		e.Rtx = nil
		e.CodecPayloadType = nil
		e.Ssrc = mapping.Encodings[i].MappedSsrc

		consumable.Encodings = append(consumable.Encodings, e)
	}

	consumable.Rtcp = &RtcpParameters{ReducedSize: ref(true), Mux: ref(true)}
	if params.Rtcp != nil {
		consumable.Rtcp.Cname = params.Rtcp.Cname
	}

	return consumable
}

// canConsume reports whether a device with the given capabilities can
// receive the consumable parameters. Payload type numbers are irrelevant.
func canConsume(consumable *ConsumableRtpParameters, caps *RtpCapabilities) (bool, error) {
	caps = clone(caps)

	if err := validateRtpCapabilities(caps); err != nil {
		return false, err
	}
	for _, codec := range consumable.Codecs {
		if codec.isRtxCodec() {
			continue
		}
		if findMatchedCodec(codec, caps.Codecs, matchOptions{strict: true}) != nil {
			return true, nil
		}
	}
	return false, nil
}

// getConsumerRtpParameters computes the RTP parameters of a consumer of the
// consumable parameters for a device with the given capabilities. It does
// not modify its arguments.
func getConsumerRtpParameters(
	consumable *ConsumableRtpParameters,
	caps *RtpCapabilities,
	opts negotiationOptions,
) (*RtpParameters, error) {
	if opts.Pipe {
		return getPipeConsumerRtpParameters(consumable, opts), nil
	}
	caps = clone(caps)

	if err := validateRtpCapabilities(caps); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadConsumerRtpParameters, err)
	}
	if len(caps.Codecs) == 0 {
		return nil, fmt.Errorf("%w: empty rtpCapabilities.codecs", ErrBadConsumerRtpParameters)
	}

	used := make(map[uint8]bool, len(opts.UsedPayloadTypes))
	for _, pt := range opts.UsedPayloadTypes {
		used[pt] = true
	}
	allocate := func(preferred uint8) (uint8, error) {
		pt, ok := preferred, !used[preferred]
		for i := 0; !ok && i < len(dynamicPayloadTypes); i++ {
			pt, ok = dynamicPayloadTypes[i], !used[dynamicPayloadTypes[i]]
		}
		if !ok {
			return 0, fmt.Errorf("%w: no free payload type", ErrBadConsumerRtpParameters)
		}
		used[pt] = true
		return pt, nil
	}

	params := &RtpParameters{Mid: opts.Mid}
	rtxSupported := false

	for _, codec := range consumable.Codecs {
		if codec.isRtxCodec() {
			continue
		}
		capCodec := findMatchedCodec(codec, caps.Codecs, matchOptions{strict: true})
		if capCodec == nil {
			continue
		}
		consumerCodec := clone(codec)
		pt, err := allocate(capCodec.PreferredPayloadType)
		if err != nil {
			return nil, err
		}
		consumerCodec.PayloadType = pt
		consumerCodec.RtcpFeedback = intersectRtcpFeedback(codec.RtcpFeedback, capCodec.RtcpFeedback)
		params.Codecs = append(params.Codecs, consumerCodec)

		rtxCodec := findRtxCodec(consumable.Codecs, codec.PayloadType)
		capRtxCodec := findRtxCapability(caps.Codecs, capCodec)
		if rtxCodec == nil || capRtxCodec == nil {
			continue
		}
		consumerRtxCodec := clone(rtxCodec)
		if consumerRtxCodec.PayloadType, err = allocate(capRtxCodec.PreferredPayloadType); err != nil {
			return nil, err
		}
		consumerRtxCodec.Parameters.Apt = consumerCodec.PayloadType
		consumerRtxCodec.RtcpFeedback = nil
		params.Codecs = append(params.Codecs, consumerRtxCodec)
		rtxSupported = true
	}

	if len(params.Codecs) == 0 {
		return nil, fmt.Errorf("%w: no compatible media codecs", ErrBadConsumerRtpParameters)
	}

	kind, _ := kindOfMimeType(params.Codecs[0].MimeType)

	for _, ext := range consumable.HeaderExtensions {
		for _, capExt := range caps.HeaderExtensions {
			if capExt.Uri != ext.Uri || capExt.Kind != kind || !canReceive(capExt.Direction) {
				continue
			}
			params.HeaderExtensions = append(params.HeaderExtensions, &RtpHeaderExtensionParameters{
				Uri:        ext.Uri,
				Id:         capExt.PreferredId,
				Encrypt:    capExt.PreferredEncrypt,
				Parameters: ext.Parameters,
			})
			break
		}
	}

	reduceBweFeedback(params)

	encoding := &RtpEncodingParameters{Ssrc: opts.newSsrc()}
	if rtxSupported {
		encoding.Rtx = &RtpEncodingRtx{Ssrc: opts.newSsrc()}
	}

	// All the consumable encodings are assumed to share the scalability mode.
	for _, e := range consumable.Encodings {
		if len(e.ScalabilityMode) > 0 {
			encoding.ScalabilityMode = e.ScalabilityMode
			break
		}
	}
	if n := len(consumable.Encodings); n > 1 {
		temporalLayers := ParseScalabilityMode(encoding.ScalabilityMode).TemporalLayers
		encoding.ScalabilityMode = fmt.Sprintf("S%dT%d", n, temporalLayers)
	}
	for _, e := range consumable.Encodings {
		if e.MaxBitrate > encoding.MaxBitrate {
			encoding.MaxBitrate = e.MaxBitrate
		}
	}
	params.Encodings = []*RtpEncodingParameters{encoding}

	params.Rtcp = &RtcpParameters{ReducedSize: ref(true), Mux: ref(true)}
	if consumable.Rtcp != nil {
		params.Rtcp.Cname = consumable.Rtcp.Cname
	}
	if len(params.Rtcp.Cname) == 0 {
		params.Rtcp.Cname = generateCname()
	}

	return params, nil
}

// getPipeConsumerRtpParameters keeps every consumable encoding and drops
// BWE support. Without enableRtx RTX and NACK are dropped as well.
func getPipeConsumerRtpParameters(consumable *ConsumableRtpParameters, opts negotiationOptions) *RtpParameters {
	params := &RtpParameters{Rtcp: clone(consumable.Rtcp)}

	for _, codec := range consumable.Codecs {
		if !opts.EnableRtx && codec.isRtxCodec() {
			continue
		}
		c := clone(codec)
		c.RtcpFeedback = filterRtcpFeedback(c.RtcpFeedback, func(fb *RtcpFeedback) bool {
			return (fb.Type == "nack" && fb.Parameter == "pli") ||
				(fb.Type == "ccm" && fb.Parameter == "fir") ||
				(opts.EnableRtx && fb.Type == "nack" && len(fb.Parameter) == 0)
		})
		params.Codecs = append(params.Codecs, c)
	}

	for _, ext := range consumable.HeaderExtensions {
		switch ext.Uri {
		case rtpExtMid, rtpExtAbsSendTime, rtpExtTransportWideCc:
		default:
			params.HeaderExtensions = append(params.HeaderExtensions, clone(ext))
		}
	}

	baseSsrc := opts.newSsrc()
	baseRtxSsrc := opts.newSsrc()

	for i, encoding := range consumable.Encodings {
		e := clone(encoding)
		e.Ssrc = baseSsrc + uint32(i)
		e.Rtx = nil
		if opts.EnableRtx {
			e.Rtx = &RtpEncodingRtx{Ssrc: baseRtxSsrc + uint32(i)}
		}
		params.Encodings = append(params.Encodings, e)
	}

	return params
}

// consumerTypeOf classifies a consumer by the encodings of its producer.
func consumerTypeOf(consumable *ConsumableRtpParameters, pipe bool) ConsumerType {
	switch {
	case pipe:
		return ConsumerPipe
	case len(consumable.Encodings) > 1:
		return ConsumerSimulcast
	case len(consumable.Encodings) == 1 &&
		ParseScalabilityMode(consumable.Encodings[0].ScalabilityMode).SpatialLayers > 1:
		return ConsumerSvc
	default:
		return ConsumerSimple
	}
}

// spatialLayerCount returns the number of selectable spatial and temporal
// layers of the consumable parameters.
func spatialLayerCount(consumable *ConsumableRtpParameters) (spatial, temporal uint8) {
	var mode ScalabilityMode
	for _, e := range consumable.Encodings {
		if len(e.ScalabilityMode) > 0 {
			mode = ParseScalabilityMode(e.ScalabilityMode)
			break
		}
	}
	if mode.SpatialLayers == 0 {
		mode = ParseScalabilityMode("")
	}
	if n := len(consumable.Encodings); n > 1 {
		mode.SpatialLayers = uint8(n)
	}
	return mode.SpatialLayers, mode.TemporalLayers
}

// clampConsumerLayers bounds layers to the layers the consumable parameters
// offer. An unset temporal layer becomes 0.
func clampConsumerLayers(layers ConsumerLayers, consumable *ConsumableRtpParameters) ConsumerLayers {
	spatialLayers, temporalLayers := spatialLayerCount(consumable)

	clamped := ConsumerLayers{SpatialLayer: layers.SpatialLayer, TemporalLayer: ref(uint8(0))}
	if clamped.SpatialLayer > spatialLayers-1 {
		clamped.SpatialLayer = spatialLayers - 1
	}
	if layers.TemporalLayer != nil {
		t := *layers.TemporalLayer
		if t > temporalLayers-1 {
			t = temporalLayers - 1
		}
		clamped.TemporalLayer = &t
	}
	return clamped
}

func findMatchedCodec(codec *RtpCodecParameters, capCodecs []*RtpCodecCapability, options matchOptions) *RtpCodecCapability {
	for _, capCodec := range capCodecs {
		if matchCodecs(codec, capCodec, options) {
			return capCodec
		}
	}
	return nil
}

func capabilityAsParameters(c *RtpCodecCapability) *RtpCodecParameters {
	return &RtpCodecParameters{
		MimeType:   c.MimeType,
		ClockRate:  c.ClockRate,
		Channels:   c.Channels,
		Parameters: c.Parameters,
	}
}

func matchCodecs(a *RtpCodecParameters, b *RtpCodecCapability, options matchOptions) bool {
	mimeType := strings.ToLower(a.MimeType)

	if mimeType != strings.ToLower(b.MimeType) || a.ClockRate != b.ClockRate {
		return false
	}
	if strings.HasPrefix(mimeType, "audio/") && channelsOf(a.Channels) != channelsOf(b.Channels) {
		return false
	}

	switch mimeType {
	case "audio/multiopus":
		if a.Parameters.NumStreams != b.Parameters.NumStreams ||
			a.Parameters.CoupledStreams != b.Parameters.CoupledStreams {
			return false
		}

	case "video/h264", "video/h264-svc":
		if a.Parameters.PacketizationMode != b.Parameters.PacketizationMode {
			return false
		}
		if !options.strict {
			break
		}
		if !h264.IsSameProfile(a.Parameters.ProfileLevelId, b.Parameters.ProfileLevelId) {
			return false
		}
		answer, err := h264.GenerateProfileLevelIdForAnswer(a.Parameters.Parameters, b.Parameters.Parameters)
		if err != nil {
			return false
		}
		if options.modify {
			a.Parameters.ProfileLevelId = answer
		}

	case "video/vp9":
		if options.strict && profileIdOf(a.Parameters.ProfileId) != profileIdOf(b.Parameters.ProfileId) {
			return false
		}
	}

	return true
}

func channelsOf(channels uint8) uint8 {
	if channels == 0 {
		return 1
	}
	return channels
}

func profileIdOf(profileId string) string {
	if len(profileId) == 0 {
		return "0"
	}
	return profileId
}

func kindOfMimeType(mimeType string) (MediaKind, bool) {
	mimeType = strings.ToLower(mimeType)

	switch {
	case strings.HasPrefix(mimeType, "audio/") && len(mimeType) > len("audio/"):
		return MediaKindAudio, true
	case strings.HasPrefix(mimeType, "video/") && len(mimeType) > len("video/"):
		return MediaKindVideo, true
	}
	return "", false
}

func canReceive(direction MediaDirection) bool {
	switch direction {
	case "", MediaDirectionSendrecv, MediaDirectionRecvonly:
		return true
	}
	return false
}

// findRtxCodec returns the RTX codec associated to the payload type pt.
func findRtxCodec(codecs []*RtpCodecParameters, pt uint8) *RtpCodecParameters {
	for _, codec := range codecs {
		if codec.isRtxCodec() && codec.Parameters.Apt == pt {
			return codec
		}
	}
	return nil
}

// findRtxCapability returns the RTX capability associated to capCodec.
func findRtxCapability(capCodecs []*RtpCodecCapability, capCodec *RtpCodecCapability) *RtpCodecCapability {
	for _, c := range capCodecs {
		if c.isRtxCodec() && c.Parameters.Apt == capCodec.PreferredPayloadType && c.ClockRate == capCodec.ClockRate {
			return c
		}
	}
	return nil
}

func intersectRtcpFeedback(a, b []*RtcpFeedback) []*RtcpFeedback {
	var result []*RtcpFeedback

	for _, fa := range a {
		for _, fb := range b {
			if fa.Type == fb.Type && fa.Parameter == fb.Parameter {
				result = append(result, &RtcpFeedback{Type: fa.Type, Parameter: fa.Parameter})
				break
			}
		}
	}
	return result
}

// reduceBweFeedback keeps transport-cc if its header extension is used and
// goog-remb if abs-send-time is used, but never both.
func reduceBweFeedback(params *RtpParameters) {
	var keep func(fb *RtcpFeedback) bool

	switch {
	case hasHeaderExtension(params.HeaderExtensions, rtpExtTransportWideCc):
		keep = func(fb *RtcpFeedback) bool { return fb.Type != "goog-remb" }
	case hasHeaderExtension(params.HeaderExtensions, rtpExtAbsSendTime):
		keep = func(fb *RtcpFeedback) bool { return fb.Type != "transport-cc" }
	default:
		keep = func(fb *RtcpFeedback) bool { return fb.Type != "transport-cc" && fb.Type != "goog-remb" }
	}
	for _, codec := range params.Codecs {
		codec.RtcpFeedback = filterRtcpFeedback(codec.RtcpFeedback, keep)
	}
}

func hasHeaderExtension(exts []*RtpHeaderExtensionParameters, uri string) bool {
	for _, ext := range exts {
		if ext.Uri == uri {
			return true
		}
	}
	return false
}

func filterRtcpFeedback(feedback []*RtcpFeedback, keep func(*RtcpFeedback) bool) []*RtcpFeedback {
	var result []*RtcpFeedback

	for _, fb := range feedback {
		if keep(fb) {
			result = append(result, fb)
		}
	}
	return result
}

func generateCname() string {
	return uuid.NewString()[:8]
}
