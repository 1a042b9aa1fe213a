package mediasoup

// SrtpParameters are the SRTP keying parameters of a plain transport.
type SrtpParameters struct {
	CryptoSuite SrtpCryptoSuite `json:"cryptoSuite"`

	// KeyBase64 is the master key and salt in base64.
	KeyBase64 string `json:"keyBase64"`
}

type SrtpCryptoSuite string

const (
	AEAD_AES_256_GCM        SrtpCryptoSuite = "AEAD_AES_256_GCM"
	AEAD_AES_128_GCM        SrtpCryptoSuite = "AEAD_AES_128_GCM"
	AES_CM_128_HMAC_SHA1_80 SrtpCryptoSuite = "AES_CM_128_HMAC_SHA1_80"
	AES_CM_128_HMAC_SHA1_32 SrtpCryptoSuite = "AES_CM_128_HMAC_SHA1_32"
)
