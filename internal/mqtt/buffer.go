package mqtt

// outMsg is a serialized message waiting for a broker connection.
type outMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox holds messages published while disconnected, oldest first.
// A retained message supersedes any queued retained message on the same
// topic, since the broker would only keep the last one anyway. When full the
// oldest message is dropped.
// Not safe for concurrent use; the publisher holds its mutex around calls.
type outbox struct {
	msgs     []outMsg
	capacity int
	dropping bool // a message was dropped since the last take
}

func newOutbox(capacity int) *outbox {
	return &outbox{
		msgs:     make([]outMsg, 0, capacity),
		capacity: capacity,
	}
}

// add queues msg. It returns true on the first drop since the last take so
// the caller can log it once.
func (o *outbox) add(msg outMsg) bool {
	if msg.retained {
		for i, m := range o.msgs {
			if m.retained && m.topic == msg.topic {
				o.msgs = append(o.msgs[:i], o.msgs[i+1:]...)
				break
			}
		}
	}

	if len(o.msgs) < o.capacity {
		o.msgs = append(o.msgs, msg)
		return false
	}

	copy(o.msgs, o.msgs[1:])
	o.msgs[len(o.msgs)-1] = msg
	first := !o.dropping
	o.dropping = true
	return first
}

// take removes and returns every queued message in publish order.
func (o *outbox) take() []outMsg {
	if len(o.msgs) == 0 {
		return nil
	}
	out := append([]outMsg(nil), o.msgs...)
	o.msgs = o.msgs[:0]
	o.dropping = false
	return out
}

func (o *outbox) len() int {
	return len(o.msgs)
}
