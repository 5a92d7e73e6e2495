// Package mqtt provides MQTT client connectivity for the sHome bridge.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// The bridge publishes device state to retained topics and receives
// commands and refresh requests over the same broker. Home automation
// platforms consume the state topics and drive the command topics; the
// broker decouples them from the sHome cloud session entirely.
//
//	sHome Cloud ↔ Bridge ↔ MQTT Broker ↔ Automation Platform
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Receive all commands
//	err = client.Subscribe(mqtt.Topics{}.AllCommands(), 1,
//	    func(topic string, payload []byte) error {
//	        addr, err := mqtt.ParseCommandTopic(topic)
//	        ...
//	    })
//
//	// Publish device state
//	topic := mqtt.Topics{}.State("light", "thng-123")
//	client.PublishRetained(topic, stateJSON)
package mqtt
