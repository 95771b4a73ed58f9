// Copyright 2025 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2025 Department of Linguistics,
// Faculty of Arts, Charles University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/czcorpus/cnc-gokit/logging"
	"github.com/czcorpus/sqlizer/apiserver"
	"github.com/czcorpus/sqlizer/cnf"
)

const (
	actionOptimize = "optimize"
	actionEstimate = "estimate"
	actionTrain    = "train"
	actionEvaluate = "evaluate"
	actionExport   = "export"
	actionServer   = "server"
	actionHistory  = "history"
	actionVersion  = "version"
	actionHelp     = "help"
)

const (
	exitErrorGeneralFailure = iota + 1
	exitErrorFailedToOpenLogDB
	exitErrorFailedToOpenBackend
	exitErrorFailedToLoadModel
	exitErrorTrainingFailed
)

var (
	version   string
	buildDate string
	gitCommit string
)

func topLevelUsage() {
	fmt.Fprintf(os.Stderr, "SQLizer - a SQL query rewrite suggestion tool\n")
	fmt.Fprintf(os.Stderr, "-----------------------------\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "\t%s\tsuggest and rank rewrites of a query\n", actionOptimize)
	fmt.Fprintf(os.Stderr, "\t%s\testimate the cost of a single query\n", actionEstimate)
	fmt.Fprintf(os.Stderr, "\t%s\ttrain a cost model on logged queries\n", actionTrain)
	fmt.Fprintf(os.Stderr, "\t%s\tevaluate a trained cost model\n", actionEvaluate)
	fmt.Fprintf(os.Stderr, "\t%s\texport logged queries as a training data file\n", actionExport)
	fmt.Fprintf(os.Stderr, "\t%s\trun the HTTP API server\n", actionServer)
	fmt.Fprintf(os.Stderr, "\t%s\tshow logged query evaluations\n", actionHistory)
	fmt.Fprintf(os.Stderr, "\t%s\tshow version info\n", actionVersion)
	fmt.Fprintf(os.Stderr, "\nUse `sqlizer help ACTION` for information about a specific action\n\n")
}

func setup(confPath string) *cnf.Conf {
	conf := cnf.LoadConfig(confPath)
	if conf.Logging.Level == "" {
		conf.Logging.Level = "info"
	}
	logging.SetupLogging(conf.Logging)
	cnf.ValidateAndDefaults(conf)
	return conf
}

func cleanVersionInfo(v string) string {
	return strings.TrimLeft(strings.Trim(v, "'"), "v")
}

func runActionVersion(ver apiserver.VersionInfo) {
	fmt.Fprintln(os.Stderr, "SQLizer version: ", ver)
}

func main() {
	version := apiserver.VersionInfo{
		Version:   cleanVersionInfo(version),
		BuildDate: cleanVersionInfo(buildDate),
		GitCommit: cleanVersionInfo(gitCommit),
	}

	cmdOptimize := flag.NewFlagSet(actionOptimize, flag.ExitOnError)
	cmdOptimize.Usage = func() {
		fmt.Fprintf(
			os.Stderr,
			"Usage:\t%s %s [options] config.json query\n",
			filepath.Base(os.Args[0]), actionOptimize)
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		cmdOptimize.PrintDefaults()
	}

	cmdEstimate := flag.NewFlagSet(actionEstimate, flag.ExitOnError)
	cmdEstimate.Usage = func() {
		fmt.Fprintf(
			os.Stderr,
			"Usage:\t%s %s [options] config.json query\n",
			filepath.Base(os.Args[0]), actionEstimate)
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		cmdEstimate.PrintDefaults()
	}

	cmdTrain := flag.NewFlagSet(actionTrain, flag.ExitOnError)
	trainSamplesPath := cmdTrain.String(
		"samples", "",
		"read training samples from an exported data file instead of the query log database")
	trainOutPath := cmdTrain.String(
		"out", "", "where to store the trained model (default: modelPath from the config)")
	cmdTrain.Usage = func() {
		fmt.Fprintf(
			os.Stderr,
			"Usage:\t%s %s [options] config.json\n",
			filepath.Base(os.Args[0]), actionTrain)
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		cmdTrain.PrintDefaults()
	}

	cmdEvaluate := flag.NewFlagSet(actionEvaluate, flag.ExitOnError)
	evalSamplesPath := cmdEvaluate.String(
		"samples", "",
		"read evaluation samples from an exported data file instead of the query log database")
	cmdEvaluate.Usage = func() {
		fmt.Fprintf(
			os.Stderr,
			"Usage:\t%s %s [options] config.json model.json[.gz]\n",
			filepath.Base(os.Args[0]), actionEvaluate)
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		cmdEvaluate.PrintDefaults()
	}

	cmdExport := flag.NewFlagSet(actionExport, flag.ExitOnError)
	cmdExport.Usage = func() {
		fmt.Fprintf(
			os.Stderr,
			"Usage:\t%s %s config.json outFile\n",
			filepath.Base(os.Args[0]), actionExport)
	}

	cmdServer := flag.NewFlagSet(actionServer, flag.ExitOnError)
	cmdServer.Usage = func() {
		fmt.Fprintf(
			os.Stderr,
			"Usage:\t%s %s config.json\n",
			filepath.Base(os.Args[0]), actionServer)
	}

	cmdHistory := flag.NewFlagSet(actionHistory, flag.ExitOnError)
	historyLimit := cmdHistory.Int("limit", 20, "max. number of records to show")
	cmdHistory.Usage = func() {
		fmt.Fprintf(
			os.Stderr,
			"Usage:\t%s %s [options] config.json [query]\n",
			filepath.Base(os.Args[0]), actionHistory)
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		cmdHistory.PrintDefaults()
	}

	cmdVersion := flag.NewFlagSet(actionVersion, flag.ExitOnError)
	cmdVersion.Usage = func() {
		cmdVersion.PrintDefaults()
	}

	cmdHelp := flag.NewFlagSet(actionHelp, flag.ExitOnError)
	cmdHelp.Usage = func() {
		cmdHelp.PrintDefaults()
	}

	action := actionHelp
	if len(os.Args) > 1 {
		action = os.Args[1]
	}

	switch action {
	case actionHelp:
		var subj string
		if len(os.Args) > 2 {
			cmdHelp.Parse(os.Args[2:])
			subj = cmdHelp.Arg(0)
		}
		if subj == "" {
			topLevelUsage()
			return
		}
		switch subj {
		case actionOptimize:
			cmdOptimize.Usage()
		case actionEstimate:
			cmdEstimate.Usage()
		case actionTrain:
			cmdTrain.Usage()
		case actionEvaluate:
			cmdEvaluate.Usage()
		case actionExport:
			cmdExport.Usage()
		case actionServer:
			cmdServer.Usage()
		case actionHistory:
			cmdHistory.Usage()
		}
	case actionVersion:
		cmdVersion.Parse(os.Args[2:])
		runActionVersion(version)
	case actionOptimize:
		cmdOptimize.Parse(os.Args[2:])
		conf := setup(cmdOptimize.Arg(0))
		runActionOptimize(conf, cmdOptimize.Arg(1))
	case actionEstimate:
		cmdEstimate.Parse(os.Args[2:])
		conf := setup(cmdEstimate.Arg(0))
		runActionEstimate(conf, cmdEstimate.Arg(1))
	case actionTrain:
		cmdTrain.Parse(os.Args[2:])
		conf := setup(cmdTrain.Arg(0))
		runActionTrain(conf, *trainSamplesPath, *trainOutPath)
	case actionEvaluate:
		cmdEvaluate.Parse(os.Args[2:])
		conf := setup(cmdEvaluate.Arg(0))
		runActionEvaluate(conf, cmdEvaluate.Arg(1), *evalSamplesPath)
	case actionExport:
		cmdExport.Parse(os.Args[2:])
		conf := setup(cmdExport.Arg(0))
		runActionExport(conf, cmdExport.Arg(1))
	case actionServer:
		cmdServer.Parse(os.Args[2:])
		conf := setup(cmdServer.Arg(0))
		runActionServer(conf, version)
	case actionHistory:
		cmdHistory.Parse(os.Args[2:])
		conf := setup(cmdHistory.Arg(0))
		runActionHistory(conf, cmdHistory.Arg(1), *historyLimit)
	default:
		fmt.Fprintf(os.Stderr, "Unknown action, please use 'help' to get more information")
	}
}
