package piv

// Card Holder Unique Identifier data elements.
//
// https://nvlpubs.nist.gov/nistpubs/SpecialPublications/NIST.SP.800-73-4.pdf#page=37
const (
	tagFASCN                     = 0x30
	tagGUID                      = 0x34
	tagExpirationDate            = 0x35
	tagIssuerAsymmetricSignature = 0x3e
	tagErrorDetectionCode        = 0xfe
)
