package iot

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"golang.org/x/sync/errgroup"
)

const (
	maxMessages       = 10
	waitTimeSeconds   = 20
	visibilityTimeout = 60
	defaultWorkers    = 4
)

// SQSAPI là phần sqs.Client mà consumer dùng
type SQSAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// LaneEventHandler xử lý body của một message; trả lỗi để message được nhận lại
type LaneEventHandler interface {
	HandleLaneEvent(ctx context.Context, body string) error
}

type SQSConsumer struct {
	sqsClient  SQSAPI
	queueURL   string
	handler    LaneEventHandler
	workers    int
	retryDelay time.Duration
}

func NewSQSConsumer(client SQSAPI, queueURL string, handler LaneEventHandler) *SQSConsumer {
	return &SQSConsumer{
		sqsClient:  client,
		queueURL:   queueURL,
		handler:    handler,
		workers:    defaultWorkers,
		retryDelay: 5 * time.Second,
	}
}

// Start long-poll queue cho đến khi ctx bị hủy
func (c *SQSConsumer) Start(ctx context.Context) error {
	log.Printf("SQS Consumer: Bắt đầu lắng nghe queue: %s", c.queueURL)
	for {
		if ctx.Err() != nil {
			log.Println("SQS Consumer: Context bị hủy, dừng consumer.")
			return nil
		}

		result, err := c.sqsClient.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(c.queueURL),
			MaxNumberOfMessages: maxMessages,
			WaitTimeSeconds:     waitTimeSeconds,
			VisibilityTimeout:   visibilityTimeout,
		})
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			log.Printf("SQS Consumer: Lỗi khi nhận message: %v", err)
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
			}
			continue
		}

		if len(result.Messages) == 0 {
			continue
		}
		log.Printf("SQS Consumer: Đã nhận %d message(s)", len(result.Messages))
		c.processBatch(ctx, result.Messages)
	}
}

// processBatch xử lý song song các message trong một lần nhận
func (c *SQSConsumer) processBatch(ctx context.Context, messages []types.Message) {
	var g errgroup.Group
	g.SetLimit(c.workers)
	for _, message := range messages {
		g.Go(func() error {
			c.processMessage(ctx, message)
			return nil
		})
	}
	g.Wait()
}

func (c *SQSConsumer) processMessage(ctx context.Context, message types.Message) {
	if message.Body == nil {
		log.Println("SQS Consumer: Nhận được message với body rỗng. Đang xóa...")
		c.deleteMessage(ctx, message.ReceiptHandle)
		return
	}

	if err := c.handler.HandleLaneEvent(ctx, *message.Body); err != nil {
		log.Printf("SQS Consumer: Lỗi khi xử lý message ID %s: %v. Message sẽ được xử lý lại sau visibility timeout.",
			aws.ToString(message.MessageId), err)
		return
	}
	c.deleteMessage(ctx, message.ReceiptHandle)
}

func (c *SQSConsumer) deleteMessage(ctx context.Context, receiptHandle *string) {
	if receiptHandle == nil {
		log.Println("SQS Consumer: Receipt handle rỗng, không thể xóa message.")
		return
	}
	_, err := c.sqsClient.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: receiptHandle,
	})
	if err != nil {
		log.Printf("SQS Consumer: Lỗi khi xóa message: %v", err)
	}
}
