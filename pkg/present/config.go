package present

import (
	"strings"

	"github.com/levenlabs/go-lflag"
)

// Configured registers the publishing flags and returns a Presenter writing to
// memory. When Kafka brokers are given every slot update is also published.
func Configured(memory *MemorySink) *Presenter {
	p := New(memory)
	brokers := lflag.String("kafka-brokers", "", "comma-delimited list of Kafka brokers to publish slot updates to")
	topic := lflag.String("kafka-topic", "energydash.slots", "Kafka topic for slot updates")

	lflag.Do(func() {
		if *brokers == "" {
			return
		}
		var addrs []string
		for _, b := range strings.Split(*brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				addrs = append(addrs, b)
			}
		}
		if len(addrs) == 0 {
			return
		}
		if *topic == "" {
			panic("kafka-topic is required with kafka-brokers")
		}
		pub := NewKafkaPublisher(addrs, *topic)
		p.sink = Tee(memory, pub)
		p.closers = append(p.closers, pub)
	})
	return p
}
