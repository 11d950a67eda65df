package common

import (
	"context"

	"resumescore/internal/errors"
)

// OperationFunc turns the decoded text of the input files into a result.
type OperationFunc[Output any] func(ctx context.Context, texts []string) (Output, error)

// LogDetailsFunc logs the start of an operation.
type LogDetailsFunc func(texts []string, cfg CommandConfig)

// RunCommand encapsulates the common logic for file-based CLI commands:
// read and decode every input file, run the operation and write the
// formatted result.
func RunCommand[Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	args []string,
	operation OperationFunc[Output],
	logDetails LogDetailsFunc,
) error {
	fileProcessor := NewFileProcessor(logger, cmdConfig.MaxFileSize)
	outputHandler := NewOutputHandler(logger)

	if err := fileProcessor.ValidateOutputFile(cmdConfig.OutputFile); err != nil {
		return err
	}

	texts, err := fileProcessor.ReadDocuments(args...)
	if err != nil {
		return err
	}

	if logDetails != nil {
		logDetails(texts, cmdConfig)
	}

	result, err := operation(ctx, texts)
	if err != nil {
		return err
	}

	return outputHandler.HandleOutput(result, cmdConfig)
}
