package gateway

// RegistrarControllerABI is the interface of the ENS ETHRegistrarController
// the gateway encodes calls for.
const RegistrarControllerABI = `[
  {"type":"constructor","stateMutability":"nonpayable","inputs":[
    {"name":"_base","type":"address"},
    {"name":"_prices","type":"address"},
    {"name":"_minCommitmentAge","type":"uint256"},
    {"name":"_maxCommitmentAge","type":"uint256"}]},
  {"type":"function","name":"available","stateMutability":"view",
    "inputs":[{"name":"name","type":"string"}],
    "outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"commit","stateMutability":"nonpayable",
    "inputs":[{"name":"commitment","type":"bytes32"}],
    "outputs":[]},
  {"type":"function","name":"commitments","stateMutability":"view",
    "inputs":[{"name":"","type":"bytes32"}],
    "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"makeCommitment","stateMutability":"pure",
    "inputs":[{"name":"name","type":"string"},{"name":"owner","type":"address"},{"name":"secret","type":"bytes32"}],
    "outputs":[{"name":"","type":"bytes32"}]},
  {"type":"function","name":"maxCommitmentAge","stateMutability":"view",
    "inputs":[],
    "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"minCommitmentAge","stateMutability":"view",
    "inputs":[],
    "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"owner","stateMutability":"view",
    "inputs":[],
    "outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"register","stateMutability":"payable",
    "inputs":[{"name":"name","type":"string"},{"name":"owner","type":"address"},{"name":"duration","type":"uint256"},{"name":"secret","type":"bytes32"}],
    "outputs":[]},
  {"type":"function","name":"renew","stateMutability":"payable",
    "inputs":[{"name":"name","type":"string"},{"name":"duration","type":"uint256"}],
    "outputs":[]},
  {"type":"function","name":"rentPrice","stateMutability":"view",
    "inputs":[{"name":"name","type":"string"},{"name":"duration","type":"uint256"}],
    "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"valid","stateMutability":"pure",
    "inputs":[{"name":"name","type":"string"}],
    "outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"withdraw","stateMutability":"nonpayable",
    "inputs":[],
    "outputs":[]},
  {"type":"event","name":"NameRegistered","anonymous":false,"inputs":[
    {"name":"name","type":"string","indexed":false},
    {"name":"label","type":"bytes32","indexed":true},
    {"name":"owner","type":"address","indexed":true},
    {"name":"cost","type":"uint256","indexed":false},
    {"name":"expires","type":"uint256","indexed":false}]},
  {"type":"event","name":"NameRenewed","anonymous":false,"inputs":[
    {"name":"name","type":"string","indexed":false},
    {"name":"label","type":"bytes32","indexed":true},
    {"name":"cost","type":"uint256","indexed":false},
    {"name":"expires","type":"uint256","indexed":false}]}
]`
