package mocks

//go:generate mockgen -destination=./mock_provider.go -package=mocks github.com/hindsight-lab/hindsight/pkg/marketdata/provider Provider
