// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package event_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/blinklabs-io/souk/event"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestEventBusSingleSubscriber(t *testing.T) {
	var testEvtData int = 999
	var testEvtType event.EventType = "test.event"
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	_, subCh := eb.Subscribe(testEvtType)
	eb.Publish(testEvtType, event.NewEvent(testEvtType, testEvtData))
	select {
	case evt, ok := <-subCh:
		if !ok {
			t.Fatalf("event channel closed unexpectedly")
		}
		switch v := evt.Data.(type) {
		case int:
			if v != testEvtData {
				t.Fatalf("did not get expected event")
			}
		default:
			t.Fatalf(
				"event data was not of expected type, expected int, got %T",
				evt.Data,
			)
		}
	case <-time.After(1 * time.Second):
		t.Fatalf("timeout waiting for event")
	}
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	var testEvtData int = 999
	var testEvtType event.EventType = "test.event"
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	_, sub1Ch := eb.Subscribe(testEvtType)
	_, sub2Ch := eb.Subscribe(testEvtType)
	eb.Publish(testEvtType, event.NewEvent(testEvtType, testEvtData))
	var gotVal1, gotVal2 bool
	for {
		if gotVal1 && gotVal2 {
			break
		}
		select {
		case evt, ok := <-sub1Ch:
			if !ok {
				t.Fatalf("event channel closed unexpectedly")
			}
			if gotVal1 {
				t.Fatalf("received unexpected event")
			}
			require.Equal(t, testEvtData, evt.Data)
			gotVal1 = true
		case evt, ok := <-sub2Ch:
			if !ok {
				t.Fatalf("event channel closed unexpectedly")
			}
			if gotVal2 {
				t.Fatalf("received unexpected event")
			}
			require.Equal(t, testEvtData, evt.Data)
			gotVal2 = true
		case <-time.After(1 * time.Second):
			t.Fatalf("timeout waiting for event")
		}
	}
}

func TestEventBusTypeIsolation(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	_, subCh := eb.Subscribe("test.wanted")
	eb.Publish("test.other", event.NewEvent("test.other", 1))
	eb.Publish("test.wanted", event.NewEvent("test.wanted", 2))
	select {
	case evt := <-subCh:
		require.Equal(t, event.EventType("test.wanted"), evt.Type)
		require.Equal(t, 2, evt.Data)
	case <-time.After(1 * time.Second):
		t.Fatalf("timeout waiting for event")
	}
}

func TestEventBusUnsubscribe(t *testing.T) {
	var testEvtData int = 999
	var testEvtType event.EventType = "test.event"
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	subId, subCh := eb.Subscribe(testEvtType)
	eb.Unsubscribe(testEvtType, subId)
	eb.Publish(testEvtType, event.NewEvent(testEvtType, testEvtData))
	select {
	case _, ok := <-subCh:
		if !ok {
			// Expected: Unsubscribe closes the subscriber channel
			return
		}
		t.Fatalf("received unexpected event")
	case <-time.After(1 * time.Second):
		t.Fatalf("subscriber channel was not closed after Unsubscribe")
	}
}

func TestEventBusSubscribeFunc(t *testing.T) {
	var testEvtType event.EventType = "test.event"
	eb := event.NewEventBus(nil, nil)
	var received atomic.Int32
	eb.SubscribeFunc(testEvtType, func(evt event.Event) {
		received.Add(1)
	})
	eb.Publish(testEvtType, event.NewEvent(testEvtType, "one"))
	eb.Publish(testEvtType, event.NewEvent(testEvtType, "two"))
	require.Eventually(t, func() bool {
		return received.Load() == 2
	}, 2*time.Second, 10*time.Millisecond)
	eb.Stop()
}

func TestEventBusStop(t *testing.T) {
	var testEvtType event.EventType = "test.event"
	eb := event.NewEventBus(nil, nil)

	_, subCh := eb.Subscribe(testEvtType)
	doneCh := make(chan bool, 1)
	eb.SubscribeFunc(testEvtType, func(evt event.Event) {
		doneCh <- true
	})

	eb.Publish(testEvtType, event.NewEvent(testEvtType, "before"))
	select {
	case <-doneCh:
	case <-time.After(1 * time.Second):
		t.Fatal("SubscribeFunc did not receive event before Stop")
	}

	eb.Stop()

	// Drain any buffered events and verify the channel closes
	channelClosed := false
	timeout := time.After(1 * time.Second)
	for !channelClosed {
		select {
		case _, ok := <-subCh:
			if !ok {
				channelClosed = true
			}
		case <-timeout:
			t.Fatal("subscriber channel was not closed within timeout")
		}
	}

	// Publishing after Stop must not reach the old handler
	eb.Publish(testEvtType, event.NewEvent(testEvtType, "after"))
	select {
	case <-doneCh:
		t.Fatal("SubscribeFunc should not have received event after Stop")
	case <-time.After(100 * time.Millisecond):
	}

	// The bus is reusable after Stop
	_, subCh2 := eb.Subscribe(testEvtType)
	eb.Publish(testEvtType, event.NewEvent(testEvtType, "new"))
	select {
	case _, ok := <-subCh2:
		if !ok {
			t.Fatal("new subscriber should receive event")
		}
	case <-time.After(1 * time.Second):
		t.Fatal("new subscriber did not receive event")
	}
	eb.Stop()
}
