package rmq

import (
	"time"

	"github.com/seventv/FrameProcessor/src/global"
	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

type RmqInstance struct {
	rmq   *amqp.Connection
	chRmq *amqp.Channel
}

func New(ctx global.Context) global.Rmq {
	cfg := ctx.Config().Rmq

	rmq, err := amqp.Dial(cfg.ServerURL)
	if err != nil {
		logrus.Fatal("failed to connect to rmq: ", err)
	}

	chRmq, err := rmq.Channel()
	if err != nil {
		logrus.Fatal("failed to open rmq channel: ", err)
	}

	// one job in flight per worker, the rest stay on the queue.
	if err := chRmq.Qos(ctx.Config().Workers(), 0, false); err != nil {
		logrus.Fatal("failed to set rmq qos: ", err)
	}

	for _, queue := range []string{cfg.JobQueueName, cfg.ResultQueueName, cfg.UpdateQueueName} {
		_, err = chRmq.QueueDeclare(
			queue, // queue name
			true,  // durable
			false, // auto delete
			false, // exclusive
			false, // no wait
			nil,   // arguments
		)
		if err != nil {
			logrus.WithField("queue", queue).Fatal("failed to declare rmq queue: ", err)
		}
	}

	return &RmqInstance{
		rmq:   rmq,
		chRmq: chRmq,
	}
}

func (r *RmqInstance) Subscribe(queue string) (<-chan amqp.Delivery, error) {
	return r.chRmq.Consume(
		queue, // queue name
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no local
		false, // no wait
		nil,   // arguments
	)
}

func (r *RmqInstance) Publish(queue string, contentType string, deliveryMode uint8, msg []byte) error {
	return r.chRmq.Publish(
		"",    // exchange
		queue, // queue name
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  contentType,
			DeliveryMode: deliveryMode,
			Timestamp:    time.Now(),
			Body:         msg,
		},
	)
}

func (r *RmqInstance) Shutdown() {
	_ = r.chRmq.Close()
	_ = r.rmq.Close()
}
