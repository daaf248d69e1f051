package configure

import (
	"bytes"
	"runtime"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/seventv/FrameProcessor/src/frame"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func checkErr(err error) {
	if err != nil {
		logrus.WithError(err).Fatal("config")
	}
}

func New() *Config {
	config := viper.New()
	config.SetConfigType("yaml")

	defaults := Config{
		LogLevel:        "info",
		Config:          "config.yaml",
		WorkingDir:      "/tmp/frames",
		MaxTaskDuration: 300,
	}
	defaults.Frames.DurationPolicy = string(frame.PolicyClamp)
	defaults.Frames.DefaultDurationMs = int(frame.DefaultDuration / time.Millisecond)
	defaults.Frames.MaxFrames = 1000

	b, err := json.Marshal(defaults)

	checkErr(err)
	tmp := viper.New()
	tmp.SetConfigType("json")
	checkErr(tmp.ReadConfig(bytes.NewBuffer(b)))
	checkErr(config.MergeConfigMap(tmp.AllSettings()))

	pflag.String("config", "config.yaml", "Config file location")
	pflag.Bool("noheader", false, "Disable the startup header")
	pflag.String("frames.duration_policy", string(frame.PolicyClamp), "What to do with frames that have no delay (strict or clamp)")
	pflag.Int("max_workers", 0, "Tasks processed at once, 0 for GOMAXPROCS")
	pflag.Parse()
	checkErr(config.BindPFlags(pflag.CommandLine))

	config.SetConfigFile(config.GetString("config"))
	if err := config.ReadInConfig(); err == nil {
		checkErr(config.MergeInConfig())
	}

	cfg := Config{}

	config.SetEnvPrefix("7TV")
	config.AllowEmptyEnv(true)
	config.AutomaticEnv()

	checkErr(config.Unmarshal(&cfg))

	initLogging(cfg.LogLevel, cfg.NoLogs)

	if _, err := cfg.FramePolicy(); err != nil {
		logrus.WithError(err).Fatal("config")
	}

	return &cfg
}

// Workers is how many tasks run at once, GOMAXPROCS unless configured.
func (c *Config) Workers() int {
	if c.MaxWorkers > 0 {
		return c.MaxWorkers
	}
	return runtime.GOMAXPROCS(0)
}

// FramePolicy is the duration policy decoders apply to frames without a
// usable delay.
func (c *Config) FramePolicy() (frame.Policy, error) {
	return frame.ParsePolicy(c.Frames.DurationPolicy, time.Duration(c.Frames.DefaultDurationMs)*time.Millisecond)
}

type Config struct {
	LogLevel string `json:"log_level,omitempty" mapstructure:"log_level,omitempty"`
	Config   string `json:"config,omitempty" mapstructure:"config,omitempty"`
	NoHeader bool   `json:"noheader,omitempty" mapstructure:"noheader,omitempty"`
	NoLogs   bool   `json:"nologs,omitempty" mapstructure:"nologs,omitempty"`

	// Aws
	Aws struct {
		AccessToken string `json:"access_token,omitempty" mapstructure:"access_token,omitempty"`
		SecretKey   string `json:"secret_key,omitempty" mapstructure:"secret_key,omitempty"`
		Region      string `json:"region,omitempty" mapstructure:"region,omitempty"`
	} `json:"aws,omitempty" mapstructure:"aws,omitempty"`

	Rmq struct {
		ServerURL       string `json:"server_url,omitempty" mapstructure:"server_url,omitempty"`
		JobQueueName    string `json:"job_queue_name,omitempty" mapstructure:"job_queue_name,omitempty"`
		ResultQueueName string `json:"result_queue_name,omitempty" mapstructure:"result_queue_name,omitempty"`
		UpdateQueueName string `json:"update_queue_name,omitempty" mapstructure:"update_queue_name,omitempty"`
	} `json:"rmq,omitempty" mapstructure:"rmq,omitempty"`

	WorkingDir      string `json:"working_dir,omitempty" mapstructure:"working_dir,omitempty"`
	MaxTaskDuration int    `json:"max_task_duration,omitempty" mapstructure:"max_task_duration,omitempty"`
	MaxWorkers      int    `json:"max_workers,omitempty" mapstructure:"max_workers,omitempty"`
	Av1Decoder      string `json:"av1_decoder,omitempty" mapstructure:"av1_decoder,omitempty"`
	Av1Encoder      string `json:"av1_encoder,omitempty" mapstructure:"av1_encoder,omitempty"`

	Frames struct {
		// strict or clamp
		DurationPolicy    string `json:"duration_policy,omitempty" mapstructure:"duration_policy,omitempty"`
		DefaultDurationMs int    `json:"default_duration_ms,omitempty" mapstructure:"default_duration_ms,omitempty"`
		MaxFrames         int    `json:"max_frames,omitempty" mapstructure:"max_frames,omitempty"`
	} `json:"frames,omitempty" mapstructure:"frames,omitempty"`
}
