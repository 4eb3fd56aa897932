package notify

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"wil-portal/config"
	"wil-portal/pkg/redis"
)

// memQueue 内存列表队列，模拟 LPUSH / BLMOVE / LREM
type memQueue struct {
	mu    sync.Mutex
	items map[string][][]byte
}

func newMemQueue() *memQueue { return &memQueue{items: map[string][][]byte{}} }

func (q *memQueue) Enqueue(_ context.Context, key string, payload []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items[key] = append([][]byte{payload}, q.items[key]...)
	return nil
}

func (q *memQueue) Reserve(_ context.Context, key, processing string, _ time.Duration) ([]byte, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	list := q.items[key]
	if len(list) == 0 {
		return nil, redis.ErrQueueEmpty
	}
	last := list[len(list)-1]
	q.items[key] = list[:len(list)-1]
	q.items[processing] = append([][]byte{last}, q.items[processing]...)
	return last, nil
}

func (q *memQueue) Ack(_ context.Context, processing string, payload []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	list := q.items[processing]
	for i, item := range list {
		if bytes.Equal(item, payload) {
			q.items[processing] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return nil
}

func (q *memQueue) Restore(_ context.Context, processing, key string) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	moved := q.items[processing]
	// processing 队尾（最早取出）先放回 key 队尾
	for i := len(moved) - 1; i >= 0; i-- {
		q.items[key] = append(q.items[key], moved[i])
	}
	delete(q.items, processing)
	return len(moved), nil
}

func (q *memQueue) len(key string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items[key])
}

// recordDispatcher 记录收到的通知
type recordDispatcher struct {
	mu   sync.Mutex
	sent []Notification
	err  error
}

func (d *recordDispatcher) Send(_ context.Context, n Notification) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, n)
	return nil
}

func TestRender(t *testing.T) {
	subject, body, err := Render(Notification{
		Template:  TemplateSignupCode,
		Recipient: "student@dut4life.ac.za",
		Fields:    map[string]string{"first_names": "Ayanda", "surname": "Zulu", "code": "ABCD1234"},
	})
	if err != nil {
		t.Fatalf("Render 失败: %v", err)
	}
	if subject == "" {
		t.Error("主题不应为空")
	}
	if !strings.Contains(body, "ABCD1234") || !strings.Contains(body, "Ayanda Zulu") {
		t.Errorf("正文缺少字段: %s", body)
	}

	// 缺失字段渲染为空，不报错
	if _, _, err := Render(Notification{Template: TemplateStudentSuspended}); err != nil {
		t.Errorf("缺失字段不应报错: %v", err)
	}

	if _, _, err := Render(Notification{Template: "nope"}); !errors.Is(err, ErrUnknownTemplate) {
		t.Errorf("期望 ErrUnknownTemplate，实际: %v", err)
	}
}

func TestSMTPDispatcher_Send(t *testing.T) {
	cfg := &config.MailConfig{SMTPHost: "smtp.example.com", SMTPPort: 587, From: "wil@example.com"}
	d := NewSMTPDispatcher(cfg, zap.NewNop())

	var gotTo, gotSubject []string
	var gotBody bytes.Buffer
	var hasDeadline bool
	d.deliver = func(ctx context.Context, m *mail.Msg) error {
		_, hasDeadline = ctx.Deadline()
		gotTo = m.GetToString()
		gotSubject = m.GetGenHeader(mail.HeaderSubject)
		_, err := m.WriteTo(&gotBody)
		return err
	}

	err := d.Send(context.Background(), Notification{
		Template:  TemplateStaffCode,
		Recipient: "mentor@example.com",
		Fields:    map[string]string{"name": "Dr Naidoo", "code": "X7K2PQ", "role": "mentor"},
	})
	if err != nil {
		t.Fatalf("Send 失败: %v", err)
	}
	if !hasDeadline {
		t.Error("投递时 ctx 应带有超时")
	}
	if len(gotTo) != 1 || !strings.Contains(gotTo[0], "mentor@example.com") {
		t.Errorf("收件人错误: %v", gotTo)
	}
	if len(gotSubject) != 1 || gotSubject[0] == "" {
		t.Errorf("主题错误: %v", gotSubject)
	}
	if !strings.Contains(gotBody.String(), "X7K2PQ") {
		t.Errorf("邮件内容错误: %s", gotBody.String())
	}

	d.deliver = func(context.Context, *mail.Msg) error { return errors.New("421 busy") }
	if err := d.Send(context.Background(), Notification{Template: TemplateStaffCode, Recipient: "x@y.z"}); err == nil {
		t.Error("SMTP 失败应返回错误")
	}
}

func TestSMTPDispatcher_SendTimeout(t *testing.T) {
	cfg := &config.MailConfig{
		SMTPHost: "smtp.example.com",
		SMTPPort: 587,
		From:     "wil@example.com",
		Timeout:  50 * time.Millisecond,
	}
	d := NewSMTPDispatcher(cfg, zap.NewNop())

	// 服务器无响应：投递一直阻塞到 ctx 超时
	d.deliver = func(ctx context.Context, _ *mail.Msg) error {
		<-ctx.Done()
		return ctx.Err()
	}

	start := time.Now()
	err := d.Send(context.Background(), Notification{Template: TemplateStaffCode, Recipient: "mentor@example.com"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("期望超时错误，实际: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("超时未生效，耗时 %v", elapsed)
	}
}

func TestSMTPDispatcher_InvalidRecipient(t *testing.T) {
	cfg := &config.MailConfig{SMTPHost: "smtp.example.com", SMTPPort: 587, From: "wil@example.com"}
	d := NewSMTPDispatcher(cfg, zap.NewNop())
	d.deliver = func(context.Context, *mail.Msg) error {
		t.Error("地址无效时不应投递")
		return nil
	}

	err := d.Send(context.Background(), Notification{Template: TemplateStaffCode, Recipient: "not an address"})
	if !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("期望 ErrInvalidAddress，实际: %v", err)
	}
}

func TestQueueDispatcher_RoundTrip(t *testing.T) {
	q := newMemQueue()
	d := NewQueueDispatcher(q, "test:notifications")

	n := Notification{
		Template:  TemplateApplicationRejected,
		Recipient: "student@dut4life.ac.za",
		Fields:    map[string]string{"first_names": "Lwazi"},
	}
	if err := d.Send(context.Background(), n); err != nil {
		t.Fatalf("入队失败: %v", err)
	}

	// 未知模板在入队前拒绝
	if err := d.Send(context.Background(), Notification{Template: "nope"}); !errors.Is(err, ErrUnknownTemplate) {
		t.Errorf("期望 ErrUnknownTemplate，实际: %v", err)
	}

	next := &recordDispatcher{}
	c := NewConsumer(q, "test:notifications", next, zap.NewNop())

	ok, err := c.ProcessOne(context.Background())
	if err != nil || !ok {
		t.Fatalf("ProcessOne 失败: ok=%v err=%v", ok, err)
	}
	if len(next.sent) != 1 || next.sent[0].Recipient != n.Recipient || next.sent[0].Fields["first_names"] != "Lwazi" {
		t.Errorf("下游收到的通知不一致: %+v", next.sent)
	}

	if n := q.len("test:notifications:processing"); n != 0 {
		t.Errorf("投递成功后应确认，processing 剩余 %d", n)
	}

	ok, err = c.ProcessOne(context.Background())
	if err != nil || ok {
		t.Errorf("空队列应返回 (false, nil)，实际 ok=%v err=%v", ok, err)
	}
}

func TestConsumer_RequeueOnSendFailure(t *testing.T) {
	q := newMemQueue()
	d := NewQueueDispatcher(q, "k")
	n := Notification{Template: TemplateStudentEnrolled, Recipient: "student@dut4life.ac.za"}
	if err := d.Send(context.Background(), n); err != nil {
		t.Fatalf("入队失败: %v", err)
	}

	// 下游临时故障：消息放回队列
	failing := &recordDispatcher{err: errors.New("421 service not available")}
	c := NewConsumer(q, "k", failing, zap.NewNop())
	ok, err := c.ProcessOne(context.Background())
	if !ok || err == nil {
		t.Fatalf("期望处理失败，实际 ok=%v err=%v", ok, err)
	}
	if q.len("k") != 1 {
		t.Fatalf("发送失败后消息应回到队列，实际 %d 条", q.len("k"))
	}
	if q.len("k:processing") != 0 {
		t.Errorf("重新入队后 processing 应为空，实际 %d 条", q.len("k:processing"))
	}

	// 下游恢复后再次消费，消息被投递
	next := &recordDispatcher{}
	c = NewConsumer(q, "k", next, zap.NewNop())
	ok, err = c.ProcessOne(context.Background())
	if err != nil || !ok {
		t.Fatalf("ProcessOne 失败: ok=%v err=%v", ok, err)
	}
	if len(next.sent) != 1 || next.sent[0].Recipient != n.Recipient {
		t.Errorf("重试未投递: %+v", next.sent)
	}
	if q.len("k") != 0 {
		t.Errorf("投递后队列应为空，实际 %d 条", q.len("k"))
	}
}

func TestConsumer_DropsUnknownTemplate(t *testing.T) {
	q := newMemQueue()
	_ = q.Enqueue(context.Background(), "k", []byte(`{"template":"nope","recipient":"a@b.c"}`))

	c := NewConsumer(q, "k", NewSMTPDispatcher(&config.MailConfig{}, zap.NewNop()), zap.NewNop())
	_, err := c.ProcessOne(context.Background())
	if !errors.Is(err, ErrUnknownTemplate) {
		t.Fatalf("期望 ErrUnknownTemplate，实际: %v", err)
	}
	if q.len("k") != 0 || q.len("k:processing") != 0 {
		t.Errorf("无法渲染的消息应丢弃，队列 %d 条，processing %d 条", q.len("k"), q.len("k:processing"))
	}
}

func TestConsumer_RunRestoresPending(t *testing.T) {
	q := newMemQueue()
	// 模拟上次进程取出后未确认就退出
	_ = q.Enqueue(context.Background(), "k:processing", []byte(`{"template":"application_rejected","recipient":"late@dut4life.ac.za"}`))

	next := &recordDispatcher{}
	c := NewConsumer(q, "k", next, zap.NewNop())
	c.timeout = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for {
		next.mu.Lock()
		got := len(next.sent)
		next.mu.Unlock()
		if got == 1 {
			break
		}
		select {
		case <-deadline:
			cancel()
			t.Fatal("未恢复并投递未确认的通知")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run 返回错误: %v", err)
	}
	if q.len("k:processing") != 0 {
		t.Errorf("processing 应为空，实际 %d 条", q.len("k:processing"))
	}
}

func TestConsumer_DecodeError(t *testing.T) {
	q := newMemQueue()
	_ = q.Enqueue(context.Background(), "k", []byte("{broken"))

	c := NewConsumer(q, "k", &recordDispatcher{}, zap.NewNop())
	_, err := c.ProcessOne(context.Background())
	if !isDecodeError(err) {
		t.Errorf("期望解码错误，实际: %v", err)
	}
	if q.len("k") != 0 || q.len("k:processing") != 0 {
		t.Error("无法解码的消息应丢弃")
	}
}

func TestNew_SelectsDriver(t *testing.T) {
	cfg := &config.Config{}

	cfg.Notify.Driver = "log"
	if d, err := New(cfg, nil, zap.NewNop()); err != nil {
		t.Fatalf("log 驱动创建失败: %v", err)
	} else if _, ok := d.(*LogDispatcher); !ok {
		t.Errorf("期望 *LogDispatcher，实际 %T", d)
	}

	cfg.Notify.Driver = "redis"
	if _, err := New(cfg, nil, zap.NewNop()); err == nil {
		t.Error("redis 驱动缺少连接时应报错")
	}
	if d, err := New(cfg, newMemQueue(), zap.NewNop()); err != nil {
		t.Fatalf("redis 驱动创建失败: %v", err)
	} else if _, ok := d.(*QueueDispatcher); !ok {
		t.Errorf("期望 *QueueDispatcher，实际 %T", d)
	}

	cfg.Notify.Driver = "smtp"
	if d, _ := New(cfg, nil, zap.NewNop()); d == nil {
		t.Error("smtp 驱动不应为 nil")
	}

	cfg.Notify.Driver = "carrier-pigeon"
	if _, err := New(cfg, nil, zap.NewNop()); err == nil {
		t.Error("未知驱动应报错")
	}
}
