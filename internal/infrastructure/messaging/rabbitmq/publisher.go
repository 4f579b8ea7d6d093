package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/baechuer/real-time-ressys/services/user-service/internal/application/user"
	"github.com/baechuer/real-time-ressys/services/user-service/internal/domain"
	appCtx "github.com/baechuer/real-time-ressys/services/user-service/internal/pkg/context"
)

const (
	DefaultExchange = "city.events"

	RoutingPasswordForgot = "user.password.forgot"

	appID = "user-service"

	defaultConfirmWait = 150 * time.Millisecond
	// a Return for a mandatory publish can arrive just after its Ack
	returnGrace = 20 * time.Millisecond
)

// PasswordForgotEvent is the payload the email-service renders into a reset mail.
type PasswordForgotEvent struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	URL     string `json:"url"`
	Subject string `json:"subject,omitempty"`
}

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// session is one connection plus a confirm-mode channel.
type session struct {
	conn     *amqp.Connection
	ch       channel
	confirms <-chan amqp.Confirmation
	returns  <-chan amqp.Return
}

func (s *session) alive() bool {
	return s != nil && s.ch != nil && (s.conn == nil || !s.conn.IsClosed())
}

func (s *session) close() {
	if s.ch != nil {
		_ = s.ch.Close()
	}
	if s.conn != nil {
		_ = s.conn.Close()
	}
}

// drain drops confirms and returns left over from an earlier timed-out publish.
func (s *session) drain() {
	for {
		select {
		case <-s.confirms:
		case <-s.returns:
		default:
			return
		}
	}
}

func openSession(url, exchange string) (*session, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	s := &session{conn: conn, ch: ch}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		s.close()
		return nil, fmt.Errorf("rabbitmq declare %s: %w", exchange, err)
	}
	if err := ch.Confirm(false); err != nil {
		s.close()
		return nil, fmt.Errorf("rabbitmq confirm mode: %w", err)
	}
	s.confirms = ch.NotifyPublish(make(chan amqp.Confirmation, 1))
	s.returns = ch.NotifyReturn(make(chan amqp.Return, 1))
	return s, nil
}

// Publisher implements user.Notifier by publishing reset requests to a topic
// exchange. Publishes are mandatory and confirmed, so a missing binding or a
// broker nack surfaces as an error.
type Publisher struct {
	url         string
	exchange    string
	confirmWait time.Duration
	dial        func(url, exchange string) (*session, error)

	mu   sync.Mutex
	sess *session
}

func NewPublisher(url, exchange string) (*Publisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	p := &Publisher{
		url:         url,
		exchange:    exchange,
		confirmWait: defaultConfirmWait,
		dial:        openSession,
	}
	sess, err := p.dial(url, exchange)
	if err != nil {
		return nil, err
	}
	p.sess = sess
	return p, nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dropSession()
	return nil
}

func (p *Publisher) Send(ctx context.Context, msg user.Message) error {
	evt := PasswordForgotEvent{
		UserID:  msg.UserID,
		Email:   msg.To,
		URL:     msg.Link,
		Subject: msg.Subject,
	}
	if err := p.publish(ctx, RoutingPasswordForgot, evt); err != nil {
		return domain.ErrNotifierUnavailable(err)
	}
	return nil
}

func (p *Publisher) publish(ctx context.Context, key string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.sess.alive() {
		p.dropSession()
		sess, err := p.dial(p.url, p.exchange)
		if err != nil {
			return err
		}
		p.sess = sess
	}
	p.sess.drain()

	reqID := appCtx.GetRequestID(ctx)
	pub := amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     uuid.NewString(),
		CorrelationId: reqID,
		AppId:         appID,
		Type:          key,
		Timestamp:     time.Now().UTC(),
		Body:          body,
	}
	if err := p.sess.ch.PublishWithContext(ctx, p.exchange, key, true, false, pub); err != nil {
		p.dropSession()
		return fmt.Errorf("rabbitmq publish %s: %w", key, err)
	}
	return p.awaitDelivery(ctx, key)
}

// awaitDelivery waits for the broker's verdict on the last publish.
func (p *Publisher) awaitDelivery(ctx context.Context, key string) error {
	timer := time.NewTimer(p.confirmWait)
	defer timer.Stop()

	select {
	case ret := <-p.sess.returns:
		return unroutable(key, ret)
	case conf := <-p.sess.confirms:
		select {
		case ret := <-p.sess.returns:
			return unroutable(key, ret)
		case <-time.After(returnGrace):
		}
		if !conf.Ack {
			return fmt.Errorf("rabbitmq nack %s (tag %d)", key, conf.DeliveryTag)
		}
		return nil
	case <-timer.C:
		return fmt.Errorf("rabbitmq confirm timeout for %s", key)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Publisher) dropSession() {
	if p.sess != nil {
		p.sess.close()
		p.sess = nil
	}
}

func unroutable(key string, ret amqp.Return) error {
	return fmt.Errorf("rabbitmq unroutable %s: %d %s", key, ret.ReplyCode, ret.ReplyText)
}
