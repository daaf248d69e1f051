package global

import (
	"context"
	"io"

	"github.com/streadway/amqp"
)

type Instances struct {
	AwsS3 AwsS3
	Rmq   Rmq
}

type AwsS3 interface {
	UploadFile(ctx context.Context, bucket, key string, data io.Reader, contentType, acl, cacheControl *string) error
	DownloadFile(ctx context.Context, bucket, key string, file io.WriterAt) error
}

// Rmq carries jobs in and task events and results out.
type Rmq interface {
	Subscribe(queue string) (<-chan amqp.Delivery, error)
	Publish(queue string, contentType string, deliveryMode uint8, msg []byte) error
	Shutdown()
}
