package config

const (
	defaultAPITarget = "http://localhost:8000"

	defaultChatNamespace = "default"
	defaultChatMode      = "auto"
	defaultChatK         = 4

	defaultEventStreamProvider = "nop"
	defaultEventStreamBrokers  = "localhost:9092"
	defaultEventStreamTopic    = "lectern.turns"

	defaultReplayListen  = ":8082"
	defaultReplayDelayMS = 25
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Client: ClientConfig{
			APITarget: defaultAPITarget,
		},
		Chat: ChatConfig{
			Namespace: defaultChatNamespace,
			Mode:      defaultChatMode,
			K:         defaultChatK,
		},
		EventStream: EventStreamConfig{
			Provider: defaultEventStreamProvider,
			Brokers:  defaultEventStreamBrokers,
			Topic:    defaultEventStreamTopic,
		},
		Replay: ReplayConfig{
			Listen:  defaultReplayListen,
			DelayMS: defaultReplayDelayMS,
		},
	}
}
