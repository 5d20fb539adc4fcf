// Package mqtt adapts the paho client to the scanner's publisher
// interface.
package mqtt

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
)

type Client struct {
	c paho.Client
}

// Dial connects to the broker; broker is a paho URI such as
// tcp://localhost:1883. An empty broker yields a nil client, and a nil
// client drops every publish.
func Dial(broker, user, password, clientId string) (*Client, error) {
	if broker == "" {
		return nil, nil
	}
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientId).
		SetUsername(user).
		SetPassword(password).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second).
		SetOnConnectHandler(func(paho.Client) { glog.Infof("mqtt connected: %s", broker) }).
		SetConnectionLostHandler(func(_ paho.Client, err error) { glog.Warningf("mqtt connection lost: %v", err) })
	c := paho.NewClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, token.Error())
	}
	return &Client{c: c}, nil
}

func (c *Client) Publish(topic string, payload []byte) error {
	if c == nil {
		return nil
	}
	token := c.c.Publish(topic, 0, false, payload)
	// Fire and forget; QoS 0 tokens complete on write.
	if token.Error() != nil {
		return token.Error()
	}
	return nil
}

func (c *Client) Close() {
	if c == nil {
		return
	}
	c.c.Disconnect(250)
}
