package mediadec

import (
	"fmt"
	"strings"
)

// Provider identifies a codec engine implementation.
type Provider uint8

const (
	ProviderAuto       Provider = iota // Let the registry choose the best available
	ProviderLibavcodec                 // LGPL AAC decoder (FFmpeg, via libmedia_aac)
	ProviderGoAAC                      // GPL pure Go AAC-LC decoder (FAAD2 port)
	ProviderLibvpx                     // BSD VP8 decoder (via libmedia_vpx)
	ProviderGoVP8                      // BSD pure Go VP8 key frame decoder
	ProviderLibtheora                  // BSD Theora decoder (libtheoradec)
	ProviderCustom                     // Caller supplied engine
	providerCount
)

// License represents the software license of a provider.
type License uint8

const (
	LicenseGPL  License = iota // Copyleft - requires source disclosure
	LicenseLGPL                // Weak copyleft - dynamic linking is fine
	LicenseBSD                 // Permissive - no copyleft obligations
)

// Permissive returns true if the license has no copyleft obligations.
func (l License) Permissive() bool { return l == LicenseBSD }

func (l License) String() string {
	switch l {
	case LicenseGPL:
		return "GPL"
	case LicenseLGPL:
		return "LGPL"
	case LicenseBSD:
		return "BSD"
	default:
		return "unknown"
	}
}

// Features is a bitmask of provider capabilities.
type Features uint32

const (
	FeatureNative      Features = 1 << iota // Backed by a native shared library
	FeatureInterFrames                      // Decodes predicted frames, not only key frames
	FeatureThreads                          // Honors DecoderConfig.Threads
	FeatureEngineLog                        // Forwards engine diagnostics to the logger
)

// Has returns true if all specified features are supported.
func (f Features) Has(feature Features) bool { return f&feature == feature }

// providerMeta contains static metadata about a provider.
type providerMeta struct {
	Name     string
	License  License
	Codec    Codec
	Features Features
	Priority int // lower wins under ProviderAuto
}

// Static metadata table - indexed by Provider, zero allocations.
var providerInfo = [providerCount]providerMeta{
	ProviderAuto:       {"auto", LicenseBSD, CodecUnknown, 0, 0},
	ProviderLibavcodec: {"libavcodec", LicenseLGPL, CodecAAC, FeatureNative | FeatureInterFrames | FeatureEngineLog, 10},
	ProviderGoAAC:      {"go-aac", LicenseGPL, CodecAAC, FeatureInterFrames, 20},
	ProviderLibvpx:     {"libvpx", LicenseBSD, CodecVP8, FeatureNative | FeatureInterFrames | FeatureThreads, 10},
	ProviderGoVP8:      {"x/image/vp8", LicenseBSD, CodecVP8, 0, 20},
	ProviderLibtheora:  {"libtheora", LicenseBSD, CodecTheora, FeatureNative | FeatureInterFrames, 10},
	ProviderCustom:     {"custom", LicenseBSD, CodecUnknown, FeatureInterFrames, 0},
}

// String returns the provider name.
func (p Provider) String() string {
	if p >= providerCount {
		return "unknown"
	}
	return providerInfo[p].Name
}

// License returns the provider's license type.
func (p Provider) License() License {
	if p >= providerCount {
		return LicenseGPL
	}
	return providerInfo[p].License
}

// Features returns the provider's feature bitmask.
func (p Provider) Features() Features {
	if p >= providerCount {
		return 0
	}
	return providerInfo[p].Features
}

// Codec returns the codec a built-in provider decodes.
// ProviderAuto and ProviderCustom return CodecUnknown.
func (p Provider) Codec() Codec {
	if p >= providerCount {
		return CodecUnknown
	}
	return providerInfo[p].Codec
}

func (p Provider) priority() int {
	if p >= providerCount {
		return 1 << 30
	}
	return providerInfo[p].Priority
}

// ParseProvider returns the provider with the given name, as printed by
// Provider.String.
func ParseProvider(name string) (Provider, error) {
	for p := ProviderAuto; p < providerCount; p++ {
		if strings.EqualFold(providerInfo[p].Name, name) {
			return p, nil
		}
	}
	return ProviderAuto, fmt.Errorf("unknown provider %q", name)
}
