// Copyright 2026 Gantry Tools.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// optionFlagVar registers the --option flag.
func optionFlagVar(flags *pflag.FlagSet, options *[]string) {
	flags.VarP(optionFlag{options}, "option", "O", "Pass an option to the build target, either a flag or key=value (can be passed multiple times)")
}

type optionFlag struct {
	options *[]string
}

func (f optionFlag) String() string {
	return strings.Join(*f.options, " ")
}

func (f optionFlag) Set(arg string) error {
	if strings.Count(arg, "=") > 1 {
		return fmt.Errorf("invalid option %q: more than one '='", arg)
	}
	if strings.HasPrefix(arg, "=") {
		return fmt.Errorf("invalid option %q: missing option name", arg)
	}
	*f.options = append(*f.options, arg)
	return nil
}

func (f optionFlag) Type() string {
	return "name[=value]"
}
