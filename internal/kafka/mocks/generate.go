package mocks

//go:generate mockgen -source=../consumer.go -destination=./mock_reader.go -package=mocks
//go:generate mockgen -source=../producer.go -destination=./mock_writer.go -package=mocks
