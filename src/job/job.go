package job

import (
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/seventv/FrameProcessor/src/animation"
	"github.com/seventv/FrameProcessor/src/image"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Job struct {
	ID string `json:"id"`

	Sizes    map[string]image.Size `json:"sizes"`
	Settings uint64                `json:"settings"`

	// LoopCount replaces the loop count read from the source. nil keeps it,
	// 0 loops forever.
	LoopCount *uint `json:"loop_count,omitempty"`

	RawProvider           RawProvider         `json:"raw_provider"`
	RawProviderDetails    jsoniter.RawMessage `json:"raw_provider_details"`
	ResultConsumer        ResultConsumer      `json:"result_consumer"`
	ResultConsumerDetails jsoniter.RawMessage `json:"result_consumer_details"`
}

const (
	EnableOutputAnimatedGIF uint64 = 1 << iota
	EnableOutputAnimatedWEBP
	EnableOutputAnimatedAVIF
	EnableOutputStaticWEBP
	EnableOutputStaticAVIF
	EnableOutputStaticPNG
	EnableOutputAnimated
	EnableOutputAnimatedThumbanils
	AllSettings uint64 = (1 << iota) - 1
)

// Parse reads a job message and fills in the defaults for anything left out.
func Parse(data []byte) (Job, error) {
	j := Job{}
	if err := json.Unmarshal(data, &j); err != nil {
		return Job{}, err
	}

	if j.Settings == 0 {
		j.Settings = AllSettings
	}

	if len(j.Sizes) == 0 {
		j.Sizes = DefaultSizes()
	}

	return j, nil
}

func (j Job) Enabled(flag uint64) bool {
	return j.Settings&flag != 0
}

type File struct {
	Name        string             `json:"name"`
	Size        int                `json:"size"`
	ContentType string             `json:"content_type"`
	Animated    bool               `json:"animated"`
	Width       int                `json:"width"`
	Height      int                `json:"height"`
	Checksum    string             `json:"checksum"`
	Metadata    animation.Metadata `json:"metadata"`
	TimeTaken   time.Duration      `json:"time_taken"`
}

// DefaultSizes are used when a job does not ask for any.
func DefaultSizes() map[string]image.Size {
	return map[string]image.Size{
		"4x": {Width: 384, Height: 128},
		"3x": {Width: 288, Height: 96},
		"2x": {Width: 192, Height: 64},
		"1x": {Width: 96, Height: 32},
	}
}

type RawProviderDetailsAws struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

type RawProviderDetailsLocal struct {
	Path string `json:"path"`
}

type ResultConsumerDetailsAws struct {
	Bucket    string `json:"bucket"`
	KeyFolder string `json:"key_folder"`
}

type ResultConsumerDetailsLocal struct {
	PathFolder string `json:"path_folder"`
}

type RawProvider string

const (
	AwsProvider   RawProvider = "aws"
	LocalProvider RawProvider = "local"
)

type ResultConsumer string

const (
	AwsConsumer   ResultConsumer = "aws"
	LocalConsumer ResultConsumer = "local"
)
