package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"gatepass/internal/config"
	"gatepass/internal/gatepass"
	"gatepass/internal/identity"
	"gatepass/internal/metrics"
	"gatepass/internal/notify"
	"gatepass/internal/queue"
	"gatepass/internal/store"
)

// Worker consumes transition events, composes the notification email and
// sends it over SMTP. Everything here is best effort: a failure is logged
// and the message dropped, never retried into the pass lifecycle.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, cfg.QueueKey)
	}

	passes := gatepass.NewRepository(db.Client)
	users := identity.NewRepository(db.Client)
	campus := cfg.Campus()

	mailer := notify.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom)
	if mailer == nil {
		log.Println("SMTP not configured (SMTP_HOST unset), composed mail will be logged only")
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for messages...")
	for msg := range messages {
		handle(ctx, msg, passes, users, mailer, campus)
	}

	log.Println("worker stopped")
}

func handle(ctx context.Context, msg queue.Message, passes *gatepass.Repository, users *identity.Repository, mailer *notify.Mailer, campus *time.Location) {
	passID := string(msg.Body)

	pass, logs, err := passes.GetPass(ctx, passID)
	if err != nil {
		log.Printf("fetch pass %s failed: %v", passID, err)
		metrics.NotificationsSent.WithLabelValues(msg.Type, "error").Inc()
		return
	}
	student, err := users.GetUserByID(ctx, pass.StudentID)
	if err != nil || student == nil {
		log.Printf("fetch student for pass %s failed: %v", passID, err)
		metrics.NotificationsSent.WithLabelValues(msg.Type, "error").Inc()
		return
	}
	profile, err := users.GetStudentProfile(ctx, pass.StudentID)
	if err != nil {
		log.Printf("fetch profile for pass %s failed: %v", passID, err)
	}

	var approver string
	if pass.ApprovedBy != nil {
		if u, err := users.GetUserByID(ctx, *pass.ApprovedBy); err == nil && u != nil {
			approver = u.FullName()
		}
	}

	email, ok := notify.Compose(notify.Event{
		Action:   msg.Type,
		Pass:     pass,
		Student:  student,
		Profile:  profile,
		Approver: approver,
		Logs:     logs,
	}, campus)
	if !ok {
		log.Printf("unknown notification action %q for pass %s", msg.Type, passID)
		metrics.NotificationsSent.WithLabelValues(msg.Type, "skipped").Inc()
		return
	}

	if mailer == nil {
		log.Printf("mail (not sent): to=%v subject=%q", email.To, email.Subject)
		metrics.NotificationsSent.WithLabelValues(msg.Type, "skipped").Inc()
		return
	}
	if err := mailer.Send(email); err != nil {
		log.Printf("send mail for pass %s failed: %v", passID, err)
		metrics.NotificationsSent.WithLabelValues(msg.Type, "error").Inc()
		return
	}
	log.Printf("notified %v about pass %s (%s)", email.To, passID, msg.Type)
	metrics.NotificationsSent.WithLabelValues(msg.Type, "sent").Inc()
}
