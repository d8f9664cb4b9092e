//go:build integration

package mqtt_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	mqtttransport "github.com/marmos91/multilocator/pkg/transport/mqtt"
)

// newBroker starts a disposable Mosquitto container for the test.
func newBroker(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "eclipse-mosquitto:2",
		ExposedPorts: []string{"1883/tcp"},
		Cmd:          []string{"mosquitto", "-c", "/mosquitto-no-auth.conf"},
		WaitingFor:   wait.ForListeningPort("1883/tcp").WithStartupTimeout(30 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "1883")
	require.NoError(t, err)

	return fmt.Sprintf("tcp://%s:%s", host, port.Port())
}

func TestMQTTTransport_IngressDeliversDecodedAngle(t *testing.T) {
	broker := newBroker(t)

	ingress, err := mqtttransport.Connect(mqtttransport.Config{
		Broker:         broker,
		ClientID:       "multilocator-test-ingress",
		IngressPrefix:  "aoa/angle",
		EgressPrefix:   "aoa/position",
		MultilocatorID: "ml-1",
	}, nil)
	require.NoError(t, err)
	defer ingress.Disconnect(100 * time.Millisecond)

	require.NoError(t, ingress.Subscribe(context.Background(), "loc-a"))

	rawPublisher := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID("raw-publisher"))
	tok := rawPublisher.Connect()
	require.True(t, tok.WaitTimeout(10*time.Second))
	require.NoError(t, tok.Error())
	defer rawPublisher.Disconnect(100)

	payload, err := json.Marshal(map[string]any{
		"sequence": 7, "azimuth": 0.1, "elevation": 0.2, "distance": 1.5, "rssi": -60,
	})
	require.NoError(t, err)
	pubTok := rawPublisher.Publish("aoa/angle/loc-a/tag-1", 1, false, payload)
	pubTok.Wait()
	require.NoError(t, pubTok.Error())

	select {
	case ev := <-ingress.Events():
		assert.Equal(t, "loc-a", ev.LocatorID)
		assert.Equal(t, "tag-1", ev.TagID)
		assert.EqualValues(t, 7, ev.Angle.Sequence)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for ingress event")
	}
}
